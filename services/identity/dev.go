package identitysvc

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/auth"
)

// DevClient is an in-process stand-in for the identity provider, used in
// debug mode and in handler tests. Tokens are HS256 JWTs signed with the app
// secret key and users live in memory.
type DevClient struct {
	secretKey []byte
	tokenExpy time.Duration

	mu    sync.RWMutex
	users map[string]devUser // keyed by uid
}

type devUser struct {
	email string
	role  auth.Role
}

var (
	_ auth.Verifier  = (*DevClient)(nil)
	_ auth.Directory = (*DevClient)(nil)
)

type devClaims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func NewDevClient(conf *core.Config) *DevClient {
	return &DevClient{
		secretKey: conf.SecretKey,
		tokenExpy: time.Hour,
		users:     make(map[string]devUser),
	}
}

func (c *DevClient) VerifyToken(ctx context.Context, idToken string) (auth.Claims, error) {
	claims := new(devClaims)
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return c.secretKey, nil
	})
	if err != nil || !token.Valid {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return auth.Claims{
		UID:   claims.Subject,
		Email: claims.Email,
		Role:  auth.Role(claims.Role),
	}, nil
}

func (c *DevClient) CreateUser(ctx context.Context, email, password string, role auth.Role) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if u.email == email {
			return "", errors.New("email already exists")
		}
	}
	uid := uuid.New().String()
	c.users[uid] = devUser{email: email, role: role}
	return uid, nil
}

func (c *DevClient) SetRole(ctx context.Context, uid string, role auth.Role) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[uid]
	if !ok {
		return errors.New("user not found")
	}
	u.role = role
	c.users[uid] = u
	return nil
}

func (c *DevClient) CustomToken(ctx context.Context, uid string) (string, error) {
	c.mu.RLock()
	u, ok := c.users[uid]
	c.mu.RUnlock()
	if !ok {
		return "", errors.New("user not found")
	}
	return c.GenerateToken(auth.Claims{UID: uid, Email: u.email, Role: u.role})
}

// GenerateToken signs an ID token carrying the given claims. Tests use it to
// mint credentials without an identity provider round trip.
func (c *DevClient) GenerateToken(claims auth.Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, devClaims{
		Email: claims.Email,
		Role:  string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.tokenExpy)),
		},
	})
	signed, err := token.SignedString(c.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}
