package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Abra313/socrease-lesson-note-management/core/notification"
)

type notificationApi struct {
	*Server
}

func registerNotificationAPI(g *echo.Group, jwt, teacherOnly echo.MiddlewareFunc, s *Server) {
	api := notificationApi{Server: s}

	ng := g.Group("/notifications", jwt, teacherOnly)
	ng.GET("", api.query)
	ng.GET("/unread-count", api.unreadCount)
	ng.POST("/read-all", api.markAllRead)
	ng.POST("/:id/read", api.markRead)
}

type (
	NotificationFilter struct {
		Unread bool `query:"unread"`
	}

	CountResponse struct {
		Count int `json:"count"`
	}
)

// Handlers

func (api *notificationApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	var filter NotificationFilter
	if err = ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []notification.Notification{})
	}

	ntfs, err := api.NotificationSvc.List(ctx.Request().Context(), claims.Subject, filter.Unread)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if ntfs == nil {
		ntfs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, ntfs)
}

func (api *notificationApi) unreadCount(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	n, err := api.NotificationSvc.CountUnread(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err = api.NotificationSvc.MarkRead(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking notification read")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *notificationApi) markAllRead(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	n, err := api.NotificationSvc.MarkAllRead(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "marking notifications read")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Count: n})
}
