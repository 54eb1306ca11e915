package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

var contextPrincipalKey = "principal"

// principalMiddleware resolves the acting principal from the JWT claims and
// stores it on the context for the classroom handlers. Tokens carrying no
// known role are rejected.
func principalMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			p := classroom.Principal{ID: claims.Subject}
			switch {
			case claims.IsTeacher:
				p.Role = user.RoleTeacher
			case claims.IsStudent:
				p.Role = user.RoleStudent
			default:
				return errHttpForbidden
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

func getContextPrincipal(ctx echo.Context) (classroom.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(classroom.Principal); ok {
		return p, nil
	}
	return classroom.Principal{}, errUnauthorized
}
