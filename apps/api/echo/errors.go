package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler maps our error taxonomy onto HTTP responses:
// validation errors become 400 {field: message} bodies, echo errors keep
// their code, anything else is a logged 500. signalShutdown is called when a
// core.shutdown error surfaces.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			code, message = httpErrCodeAndMessage(origErr)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = translatedFields(origErr)
		case *core.ValidationError:
			code = http.StatusBadRequest
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(code)
			message = msg
			logServerError(ctx, logger, err, msg)

			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func httpErrCodeAndMessage(herr *echo.HTTPError) (int, interface{}) {
	if herr == middleware.ErrJWTMissing {
		return http.StatusUnauthorized, herr.Message
	}
	if herr.Internal != nil {
		if inner, ok := herr.Internal.(*echo.HTTPError); ok {
			herr = inner
		}
	}
	return herr.Code, herr.Message
}

func translatedFields(vErrs validator.ValidationErrors) map[string]string {
	fldErrs := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
	}
	return fldErrs
}

// logServerError reports the 500 with the requesting user attached when the
// request carried valid claims.
func logServerError(ctx echo.Context, logger core.Logger, err error, msg string) {
	args := []interface{}{errors.Wrap(err, msg)}
	if claims, cErr := getContextClaims(ctx); cErr == nil {
		args = append(args, user.User{
			ID:       claims.Subject,
			Username: claims.Username,
			Email:    claims.Email,
		})
	}
	logger.Error(msg, args...)
}
