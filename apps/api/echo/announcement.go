package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/announcement"
)

type announcementApi struct {
	*Server
}

func registerAnnouncementAPI(g *echo.Group, jwt, anyRole, adminOnly echo.MiddlewareFunc, s *Server) {
	api := announcementApi{Server: s}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.latest, anyRole)
	ag.POST("", api.create, adminOnly)
}

type LatestFilter struct {
	Limit int `query:"limit"`
}

// Handlers

func (api *announcementApi) latest(ctx echo.Context) error {
	var filter LatestFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []announcement.Announcement{})
	}
	anns, err := api.AnnouncementSvc.Latest(ctx.Request().Context(), filter.Limit)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) create(ctx echo.Context) error {
	author, err := getContextAccount(ctx, api.AccountSvc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	var data announcement.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(api.Validate); err != nil {
		return err
	}

	ann, err := api.AnnouncementSvc.Create(ctx.Request().Context(), author.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}
