package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

type aiApi struct {
	*Server
}

func registerAIAPI(g *echo.Group, jwt, teacherOnly, adminOnly echo.MiddlewareFunc, s *Server) {
	api := aiApi{Server: s}

	ag := g.Group("/ai", jwt)
	ag.POST("/improve", api.improve, teacherOnly)
	ag.POST("/chat", api.chat, teacherOnly)
	ag.POST("/evaluate/pending", api.evaluatePending, adminOnly)
	ag.POST("/evaluate/:id", api.evaluate, adminOnly)
}

type (
	ImproveRequest struct {
		Section string `json:"section"`
		Text    string `json:"text"`
	}

	ChatRequest struct {
		Message string `json:"message"`
	}

	TextResponse struct {
		Text string `json:"text"`
	}
)

// Handlers

func (api *aiApi) improve(ctx echo.Context) error {
	var data ImproveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ImproveRequest")
	}
	txt, err := api.AISvc.ImproveSection(ctx.Request().Context(), data.Section, data.Text)
	if err != nil {
		return errors.Wrap(err, "improving section")
	}
	return ctx.JSON(http.StatusOK, TextResponse{Text: txt})
}

func (api *aiApi) chat(ctx echo.Context) error {
	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	txt, err := api.AISvc.Chat(ctx.Request().Context(), data.Message)
	if err != nil {
		return errors.Wrap(err, "chatting with assistant")
	}
	return ctx.JSON(http.StatusOK, TextResponse{Text: txt})
}

func (api *aiApi) evaluate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	note, err := api.LessonSvc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving lesson note")
	}
	eval, err := api.AISvc.EvaluateLesson(reqCtx, note)
	if err != nil {
		return errors.Wrap(err, "evaluating lesson note")
	}
	return ctx.JSON(http.StatusOK, eval)
}

func (api *aiApi) evaluatePending(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	notes, err := api.LessonSvc.Query(reqCtx, &lesson.QueryFilter{Status: string(lesson.StatusPending)}, nil)
	if err != nil {
		return errors.Wrap(err, "querying pending lesson notes")
	}
	evals, err := api.AISvc.EvaluateAll(reqCtx, notes)
	if err != nil {
		return errors.Wrap(err, "evaluating pending lesson notes")
	}
	return ctx.JSON(http.StatusOK, evals)
}
