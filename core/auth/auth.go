package auth

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
)

var (
	// errors
	ErrInvalidToken = errors.New("invalid token")
	ErrNoToken      = errors.New("no token provided")
)

// Role is the authorization class attached to a verified identity token.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// DisplayName returns the default display name given to a new user of this role.
func (r Role) DisplayName() string {
	s := string(r)
	if s == "" {
		return "User"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " User"
}

// Claims represents the identity attributes extracted from a verified token.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// ResolveRole applies the bootstrap fallback: a verified user with no role
// claim but the designated bootstrap email is granted admin. This is an
// escape hatch for initial setup; it is disabled when bootstrapEmail is empty.
func ResolveRole(claims Claims, bootstrapEmail string) Role {
	if claims.Role == "" && bootstrapEmail != "" && core.CleanString(claims.Email, true /* lower */) == bootstrapEmail {
		return RoleAdmin
	}
	return claims.Role
}

type (
	// Verifier validates a bearer credential against the identity provider
	// and extracts the identity claims.
	Verifier interface {
		VerifyToken(ctx context.Context, idToken string) (Claims, error)
	}

	// Directory manages user accounts held by the identity provider.
	Directory interface {
		CreateUser(ctx context.Context, email, password string, role Role) (uid string, err error)
		SetRole(ctx context.Context, uid string, role Role) error
		CustomToken(ctx context.Context, uid string) (string, error)
	}
)

// NewUser contains information needed to create a new identity-provider user.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}
