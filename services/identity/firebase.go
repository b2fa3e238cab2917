package identitysvc

import (
	"context"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/auth"
)

// FirebaseClient verifies ID tokens against Firebase Auth and manages the
// user directory through the Admin SDK. The role claim travels as a custom
// user claim so the frontend can read it straight off the decoded token.
type FirebaseClient struct {
	auth   *fbauth.Client
	logger core.Logger
}

var (
	_ auth.Verifier  = (*FirebaseClient)(nil)
	_ auth.Directory = (*FirebaseClient)(nil)
)

func NewFirebaseClient(ctx context.Context, conf *core.Config, logger core.Logger) (*FirebaseClient, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase app")
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase auth client")
	}
	return &FirebaseClient{auth: client, logger: logger}, nil
}

func (c *FirebaseClient) VerifyToken(ctx context.Context, idToken string) (auth.Claims, error) {
	token, err := c.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return auth.Claims{}, errors.Wrap(auth.ErrInvalidToken, err.Error())
	}
	claims := auth.Claims{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := token.Claims["role"].(string); ok {
		claims.Role = auth.Role(role)
	}
	return claims, nil
}

func (c *FirebaseClient) CreateUser(ctx context.Context, email, password string, role auth.Role) (string, error) {
	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(role.DisplayName())
	user, err := c.auth.CreateUser(ctx, params)
	if err != nil {
		return "", errors.Wrap(err, "creating user")
	}
	if err = c.SetRole(ctx, user.UID, role); err != nil {
		return "", err
	}
	c.logger.Info("user created", "uid", user.UID, "role", role)
	return user.UID, nil
}

func (c *FirebaseClient) SetRole(ctx context.Context, uid string, role auth.Role) error {
	claims := map[string]interface{}{"role": string(role)}
	if err := c.auth.SetCustomUserClaims(ctx, uid, claims); err != nil {
		return errors.Wrap(err, "setting role claim")
	}
	return nil
}

// CustomToken mints a short-lived token the client SDK can exchange for a
// fresh ID token, forcing a claims refresh after a role change.
func (c *FirebaseClient) CustomToken(ctx context.Context, uid string) (string, error) {
	token, err := c.auth.CustomToken(ctx, uid)
	if err != nil {
		return "", errors.Wrap(err, "minting custom token")
	}
	return token, nil
}
