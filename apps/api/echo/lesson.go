package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

type lessonApi struct {
	*Server
}

func registerLessonAPI(g *echo.Group, jwt, teacherOnly echo.MiddlewareFunc, s *Server) {
	api := lessonApi{Server: s}

	lg := g.Group("/lessons", jwt, teacherOnly)
	lg.GET("", api.query)
	lg.POST("", api.createDraft)
	lg.POST("/submit", api.createAndSubmit)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.saveDraft)
	lg.POST("/:id/submit", api.submit)
}

// LessonRequest is the editable content of a note as sent by its owner.
type LessonRequest struct {
	lesson.Content
	AIGenerated bool `json:"ai_generated"`
}

type lessonEdit func(ctx context.Context, teacherID, noteID string, content lesson.Content, aiGenerated bool) (lesson.Note, error)

// Handlers

func (api *lessonApi) query(ctx echo.Context) error {
	teacher, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	filter := new(lesson.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lesson.Note{})
	}
	filter.TeacherID = teacher.ID // own notes only
	ordering := bindOrdering(ctx)

	notes, err := api.LessonSvc.Query(ctx.Request().Context(), filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying lesson notes")
	}
	if notes == nil {
		notes = []lesson.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	teacher, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	note, err := api.LessonSvc.GetOwned(ctx.Request().Context(), teacher.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving lesson note")
	}
	return ctx.JSON(http.StatusOK, note)
}

func (api *lessonApi) createDraft(ctx echo.Context) error {
	return api.edit(ctx, api.LessonSvc.SaveDraft, "", http.StatusCreated, "saving draft")
}

func (api *lessonApi) createAndSubmit(ctx echo.Context) error {
	return api.edit(ctx, api.LessonSvc.Submit, "", http.StatusCreated, "submitting lesson note")
}

func (api *lessonApi) saveDraft(ctx echo.Context) error {
	return api.edit(ctx, api.LessonSvc.SaveDraft, ctx.Param("id"), http.StatusOK, "saving draft")
}

func (api *lessonApi) submit(ctx echo.Context) error {
	return api.edit(ctx, api.LessonSvc.Submit, ctx.Param("id"), http.StatusOK, "submitting lesson note")
}

func (api *lessonApi) edit(ctx echo.Context, fn lessonEdit, noteID string, code int, msg string) error {
	teacher, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	var data LessonRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonRequest")
	}

	note, err := fn(ctx.Request().Context(), teacher.ID, noteID, data.Content, data.AIGenerated)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return ctx.JSON(code, note)
}
