package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
	"github.com/Abra313/socrease-lesson-note-management/core/lesson"
)

const (
	recentCount   = 5
	monthsInChart = 6
)

type dashboardApi struct {
	*Server
}

func registerDashboardAPI(g *echo.Group, jwt, teacherOnly, adminOnly echo.MiddlewareFunc, s *Server) {
	api := dashboardApi{Server: s}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/teacher", api.teacher, teacherOnly)
	dg.GET("/admin", api.admin, adminOnly)
}

type (
	TeacherDashboard struct {
		Stats               lesson.Stats                `json:"stats"`
		RecentLessons       []lesson.Note               `json:"recent_lessons"`
		UnreadNotifications int                         `json:"unread_notifications"`
		Announcements       []announcement.Announcement `json:"announcements"`
	}

	AdminDashboard struct {
		TotalTeachers int                 `json:"total_teachers"`
		Stats         lesson.Stats        `json:"stats"`
		RecentPending []ReviewNote        `json:"recent_pending"`
		Monthly       []lesson.MonthCount `json:"monthly"`
	}
)

// Handlers

func (api *dashboardApi) teacher(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	reqCtx := ctx.Request().Context()
	var dash TeacherDashboard

	if dash.Stats, err = api.LessonSvc.Stats(reqCtx, claims.Subject); err != nil {
		return errors.Wrap(err, "counting lesson notes")
	}
	if dash.RecentLessons, err = api.LessonSvc.Recent(reqCtx, lesson.QueryFilter{TeacherID: claims.Subject}, recentCount); err != nil {
		return errors.Wrap(err, "querying recent lesson notes")
	}
	if dash.UnreadNotifications, err = api.NotificationSvc.CountUnread(reqCtx, claims.Subject); err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	if dash.Announcements, err = api.AnnouncementSvc.Latest(reqCtx, announcement.LatestCount); err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if dash.RecentLessons == nil {
		dash.RecentLessons = []lesson.Note{}
	}
	if dash.Announcements == nil {
		dash.Announcements = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *dashboardApi) admin(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	var dash AdminDashboard
	var err error

	if dash.TotalTeachers, err = api.AccountSvc.CountTeachers(reqCtx); err != nil {
		return errors.Wrap(err, "counting teachers")
	}
	if dash.Stats, err = api.LessonSvc.Stats(reqCtx, ""); err != nil {
		return errors.Wrap(err, "counting lesson notes")
	}
	pending, err := api.LessonSvc.Recent(reqCtx, lesson.QueryFilter{Status: string(lesson.StatusPending)}, recentCount)
	if err != nil {
		return errors.Wrap(err, "querying recent pending lesson notes")
	}
	names, err := api.AccountSvc.TeacherNames(reqCtx)
	if err != nil {
		return errors.Wrap(err, "getting teacher names")
	}
	dash.RecentPending = withTeacherNames(pending, names)
	if dash.Monthly, err = api.LessonSvc.MonthlyCounts(reqCtx, monthsInChart); err != nil {
		return errors.Wrap(err, "counting monthly submissions")
	}
	return ctx.JSON(http.StatusOK, dash)
}
