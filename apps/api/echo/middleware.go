package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/account"
)

// requireRole lets the request through only if the account behind the token still exists
// and has one of the given roles. The account is read from the store on every request.
func requireRole(svc *account.Service, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			acc, err := getContextAccount(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context account")
			}
			for _, role := range roles {
				if acc.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
