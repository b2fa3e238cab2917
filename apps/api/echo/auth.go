package echoapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/auth"
)

var (
	contextClaimsKey = "claims"
	secretHeader     = "x-secret"
)

// authMiddleware extracts the bearer token, verifies it against the identity
// provider and stashes the resolved Claims in the request context.
func authMiddleware(verifier auth.Verifier, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := extractBearerToken(ctx)
			if err != nil {
				return errNoToken
			}
			claims, err := verifier.VerifyToken(ctx.Request().Context(), token)
			if err != nil {
				return errInvalidToken
			}
			claims.Role = auth.ResolveRole(claims, conf.BootstrapAdminEmail)
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// roleMiddleware gates a route on the exact role carried by the verified claims.
func roleMiddleware(role auth.Role) echo.MiddlewareFunc {
	msg := strings.ToUpper(string(role)[:1]) + string(role)[1:] + " access required"
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, msg)
			}
			return next(ctx)
		}
	}
}

// secretMiddleware gates a route on the shared x-secret header. The route is
// effectively disabled when no security code is configured.
func secretMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			secret := ctx.Request().Header.Get(secretHeader)
			if conf.SecurityCode == "" ||
				subtle.ConstantTimeCompare([]byte(secret), []byte(conf.SecurityCode)) != 1 {
				return errWrongSecret
			}
			return next(ctx)
		}
	}
}

func extractBearerToken(ctx echo.Context) (string, error) {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):], nil
	}
	return "", auth.ErrNoToken
}

func getContextClaims(ctx echo.Context) (auth.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(auth.Claims); ok {
		return claims, nil
	}
	// only reachable when a route that reads claims was registered without
	// authMiddleware, so the router wiring itself is broken
	return auth.Claims{}, core.NewShutdownError("claims missing from request context")
}
