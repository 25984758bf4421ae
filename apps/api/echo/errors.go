package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
	"github.com/Abra313/socrease-lesson-note-management/core/editor"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
	"github.com/Abra313/socrease-lesson-note-management/core/notification"
)

var (
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountNotFound = echo.NewHTTPError(http.StatusUnauthorized, msgAccountNotFound)
	errRefreshExpired  = echo.NewHTTPError(http.StatusForbidden, msgRefreshExpired)
	errHttpForbidden   = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

var authErrorCodes = map[core.AuthErrorKind]int{
	core.AuthUserNotFound:       http.StatusBadRequest,
	core.AuthInvalidCredentials: http.StatusBadRequest,
	core.AuthTooManyAttempts:    http.StatusTooManyRequests,
	core.AuthNotApproved:        http.StatusForbidden,
	core.AuthAccessDenied:       http.StatusForbidden,
}

// sentinelCodes maps domain errors to their HTTP status.
var sentinelCodes = map[error]int{
	account.ErrNotFound:         http.StatusNotFound,
	lesson.ErrNotFound:          http.StatusNotFound,
	notification.ErrNotFound:    http.StatusNotFound,
	editor.ErrSessionNotFound:   http.StatusNotFound,
	lesson.ErrInvalidTransition: http.StatusConflict,
	lesson.ErrNotEditable:       http.StatusConflict,
	account.ErrSelfAction:       http.StatusForbidden,
	account.ErrNotTeacher:       http.StatusForbidden,
	ai.ErrEmptyReply:            http.StatusBadGateway,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.AuthError:
			code = authErrorCodes[origErr.Kind]
			if code == 0 {
				code = http.StatusUnauthorized
			}
			message = origErr.Message
		default:
			if c, ok := sentinelCodes[cause]; ok {
				code = c
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var acc account.Account
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				acc.ID = claims.Subject
				acc.Name = claims.Name
				acc.Email = claims.Email
				acc.Role = claims.Role
			}
			logger.Error(msg, errors.Wrap(err, msg), acc)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
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
}
