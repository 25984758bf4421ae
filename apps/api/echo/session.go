package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

type sessionApi struct {
	*Server
}

func registerSessionAPI(g *echo.Group, jwt, teacherOnly echo.MiddlewareFunc, s *Server) {
	api := sessionApi{Server: s}

	sg := g.Group("/sessions", jwt, teacherOnly)
	sg.POST("", api.open)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.POST("/:id/save", api.save)
	sg.POST("/:id/submit", api.submit)
	sg.POST("/:id/generate", api.generate)
	sg.DELETE("/:id", api.close)
}

type OpenSessionRequest struct {
	NoteID string `json:"note_id"`
}

// Handlers

func (api *sessionApi) open(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var data OpenSessionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OpenSessionRequest")
	}

	sess, err := api.Editor.Open(ctx.Request().Context(), claims.Subject, data.NoteID)
	if err != nil {
		return errors.Wrap(err, "opening editing session")
	}
	return ctx.JSON(http.StatusCreated, sess.View())
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sess, err := api.Editor.Get(claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving editing session")
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *sessionApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sess, err := api.Editor.Get(claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving editing session")
	}
	var content lesson.Content
	if err = ctx.Bind(&content); err != nil {
		return errors.Wrap(err, "binding to lesson.Content")
	}
	return ctx.JSON(http.StatusOK, sess.Update(content))
}

func (api *sessionApi) save(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	sess, err := api.Editor.Get(claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving editing session")
	}
	if _, err = sess.Save(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return ctx.JSON(http.StatusOK, sess.View())
}

func (api *sessionApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	note, err := api.Editor.Submit(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "submitting lesson note")
	}
	return ctx.JSON(http.StatusOK, note)
}

func (api *sessionApi) generate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	view, err := api.Editor.Generate(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "generating lesson content")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *sessionApi) close(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.Editor.Close(claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "closing editing session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
