package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/account"
)

type accountApi struct {
	*Server
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := accountApi{Server: s}

	// un-authed endpoints
	g.POST("/auth/register", api.register)
	g.POST("/auth/login", api.login)
	g.POST("/admin/login", api.adminLogin)

	// authed endpoints
	ag := g.Group("/auth", jwt)
	ag.GET("/me", api.me)
	ag.POST("/logout", api.logout)
	ag.POST("/token-refresh", api.refreshToken)
}

func registerTeacherAPI(g *echo.Group, jwt, adminOnly echo.MiddlewareFunc, s *Server) {
	api := accountApi{Server: s}

	tg := g.Group("/teachers", jwt, adminOnly)
	tg.GET("", api.queryTeachers)
	tg.POST("/:id/approve", api.approve)
	tg.POST("/:id/suspend", api.suspend)
	tg.DELETE("/:id", api.reject)
}

// Handlers

func (api *accountApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	acc, err := api.AccountSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering account")
	}
	return ctx.JSON(http.StatusCreated, acc)
}

func (api *accountApi) login(ctx echo.Context) error {
	return api.doLogin(ctx, false)
}

func (api *accountApi) adminLogin(ctx echo.Context) error {
	return api.doLogin(ctx, true)
}

func (api *accountApi) doLogin(ctx echo.Context, adminOnly bool) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.Validate); err != nil {
		return err
	}

	acc, err := api.authenticate(ctx.Request().Context(), data.Email, data.Password, adminOnly)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.generate(NewClaims(api.Conf, acc))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Account: acc})
}

func (api *accountApi) me(ctx echo.Context) error {
	acc, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.Editor.CloseAllFor(claims.Subject)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := api.renewToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	acc, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Account: acc})
}

func (api *accountApi) queryTeachers(ctx echo.Context) error {
	filter := new(account.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []account.Account{})
	}
	filter.Clean()
	filter.Role = account.RoleTeacher
	ordering := bindOrdering(ctx)

	teachers, err := api.AccountSvc.Query(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *accountApi) approve(ctx echo.Context) error {
	return api.setApproval(ctx, api.AccountSvc.Approve, "approving teacher")
}

func (api *accountApi) suspend(ctx echo.Context) error {
	return api.setApproval(ctx, api.AccountSvc.Suspend, "suspending teacher")
}

func (api *accountApi) setApproval(ctx echo.Context, action accountAction, msg string) error {
	// Say No to Suicide! ctxAccount cannot act on themselves
	admin, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	acc, err := action(ctx.Request().Context(), admin, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return ctx.JSON(http.StatusOK, acc)
}

func (api *accountApi) reject(ctx echo.Context) error {
	admin, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	id := ctx.Param("id")
	if err = api.AccountSvc.Reject(ctx.Request().Context(), admin, id); err != nil {
		return errors.Wrap(err, "rejecting teacher")
	}
	// a rejected teacher cannot keep editing
	api.Editor.CloseAllFor(id)
	return ctx.NoContent(http.StatusNoContent)
}

type (
	accountAction func(ctx context.Context, actor account.Account, id string) (account.Account, error)

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string          `json:"token"`
		Account account.Account `json:"account"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
