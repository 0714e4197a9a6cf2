package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type TimerController struct {
	TimerService *service.TimerService
}

func NewTimerController(timerService *service.TimerService) *TimerController {
	return &TimerController{TimerService: timerService}
}

// Get godoc
// @Summary The caller's course countdown
// @Tags timer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.TimerState}
// @Router /api/timer [get]
func (c *TimerController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	state, err := c.TimerService.Get(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

type CheckpointRequest struct {
	RemainingSeconds *int `json:"remainingSeconds" binding:"required"`
}

// Checkpoint godoc
// @Summary Persist the client-side countdown
// @Description The stored value only decreases. A checkpoint above the stored
// @Description value is rejected and the authoritative state returned.
// @Tags timer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CheckpointRequest true "Remaining seconds"
// @Success 200 {object} util.Response{data=service.TimerState}
// @Failure 409 {object} util.Response "Stale checkpoint"
// @Router /api/timer/checkpoint [post]
func (c *TimerController) Checkpoint(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	var req CheckpointRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := c.TimerService.Checkpoint(claims.UserID, *req.RemainingSeconds)
	if err != nil {
		if errors.Is(err, util.ErrTimerCheckpointOld) {
			ctx.JSON(409, util.Response{Code: 409, Message: "Stale checkpoint", Data: state})
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, state)
}
