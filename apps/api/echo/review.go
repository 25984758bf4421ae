package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/account"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

// unknownTeacher is shown for notes whose teacher account was deleted.
const unknownTeacher = "Unknown"

type reviewApi struct {
	*Server
}

func registerReviewAPI(g *echo.Group, jwt, adminOnly echo.MiddlewareFunc, s *Server) {
	api := reviewApi{Server: s}

	rg := g.Group("/reviews", jwt, adminOnly)
	rg.GET("", api.query)
	rg.GET("/filters", api.filterOptions)
	rg.GET("/:id", api.retrieve)
	rg.POST("/:id/approve", api.approve)
	rg.POST("/:id/reject", api.reject)
}

type (
	// ReviewNote is a note as shown to reviewers.
	ReviewNote struct {
		lesson.Note
		TeacherName string `json:"teacher_name"`
	}

	ReviewRequest struct {
		Feedback string `json:"feedback"`
	}

	reviewDecision func(ctx context.Context, reviewer account.Account, noteID, feedback string) (lesson.Note, error)
)

func withTeacherNames(notes []lesson.Note, names map[string]string) []ReviewNote {
	res := make([]ReviewNote, 0, len(notes))
	for _, n := range notes {
		name, ok := names[n.TeacherID]
		if !ok {
			name = unknownTeacher
		}
		res = append(res, ReviewNote{Note: n, TeacherName: name})
	}
	return res
}

// Handlers

func (api *reviewApi) query(ctx echo.Context) error {
	filter := new(lesson.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ReviewNote{})
	}
	ordering := bindOrdering(ctx)

	reqCtx := ctx.Request().Context()
	notes, err := api.LessonSvc.Query(reqCtx, filter, ordering)
	if err != nil {
		return errors.Wrap(err, "querying lesson notes")
	}
	names, err := api.AccountSvc.TeacherNames(reqCtx)
	if err != nil {
		return errors.Wrap(err, "getting teacher names")
	}
	return ctx.JSON(http.StatusOK, withTeacherNames(notes, names))
}

func (api *reviewApi) filterOptions(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	names, err := api.AccountSvc.TeacherNames(reqCtx)
	if err != nil {
		return errors.Wrap(err, "getting teacher names")
	}
	opts, err := api.LessonSvc.FilterOptions(reqCtx, names)
	if err != nil {
		return errors.Wrap(err, "getting filter options")
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (api *reviewApi) retrieve(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	note, err := api.LessonSvc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrieving lesson note")
	}
	names, err := api.AccountSvc.TeacherNames(reqCtx)
	if err != nil {
		return errors.Wrap(err, "getting teacher names")
	}
	return ctx.JSON(http.StatusOK, withTeacherNames([]lesson.Note{note}, names)[0])
}

func (api *reviewApi) approve(ctx echo.Context) error {
	return api.decide(ctx, api.ReviewSvc.Approve, "approving lesson note")
}

func (api *reviewApi) reject(ctx echo.Context) error {
	return api.decide(ctx, api.ReviewSvc.Reject, "rejecting lesson note")
}

func (api *reviewApi) decide(ctx echo.Context, decision reviewDecision, msg string) error {
	reviewer, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	var data ReviewRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewRequest")
	}

	note, err := decision(ctx.Request().Context(), reviewer, ctx.Param("id"), data.Feedback)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	return ctx.JSON(http.StatusOK, note)
}
