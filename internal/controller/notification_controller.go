package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	NotificationService *service.NotificationService
	Hub                 *service.NotificationHub
}

func NewNotificationController(notificationService *service.NotificationService, hub *service.NotificationHub) *NotificationController {
	return &NotificationController{NotificationService: notificationService, Hub: hub}
}

// List godoc
// @Summary The caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	list, total, err := c.NotificationService.List(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} util.Response
// @Router /api/notifications/{id}/read [put]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	if err := c.NotificationService.MarkRead(claims.UserID, util.MustParseUint(ctx.Param("id"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UnreadCount godoc
// @Summary Number of unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	count, err := c.NotificationService.UnreadCount(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"count": count})
}

// Connect godoc
// @Summary Open the notification websocket
// @Description Authenticate with ?token= since browsers cannot set headers
// @Description on websocket upgrades.
// @Tags notifications
// @Security BearerAuth
// @Router /api/ws [get]
func (c *NotificationController) Connect(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, claims.UserID)
}
