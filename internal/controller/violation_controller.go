package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ViolationController struct {
	ViolationService *service.ViolationService
}

func NewViolationController(violationService *service.ViolationService) *ViolationController {
	return &ViolationController{ViolationService: violationService}
}

// Record godoc
// @Summary Report a screenshot attempt
// @Description Best-effort client-side detection; accepted for any
// @Description authenticated identity including guests.
// @Tags violations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ViolationInput true "Violation details"
// @Success 201 {object} util.Response
// @Router /api/violations [post]
func (c *ViolationController) Record(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.ViolationInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ViolationService.Record(claims.UserID, claims.Name, &input); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, nil)
}

// AdminList godoc
// @Summary List reported screenshot attempts (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param userId query int false "Filter by user"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/violations [get]
func (c *ViolationController) AdminList(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	userID := util.MustParseUint(ctx.DefaultQuery("userId", "0"))

	list, total, err := c.ViolationService.List(userID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}
