package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// Student godoc
// @Summary Student home screen: progress, stages, certificate, timer
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.StudentDashboard}
// @Router /api/dashboard [get]
func (c *DashboardController) Student(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	dash, err := c.DashboardService.ForStudent(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, dash)
}

// Admin godoc
// @Summary Admin overview counters (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AdminOverview}
// @Router /api/admin/overview [get]
func (c *DashboardController) Admin(ctx *gin.Context) {
	overview, err := c.DashboardService.ForAdmin()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}
