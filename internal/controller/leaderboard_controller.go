package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// Top godoc
// @Summary Leaderboard ranked by total correct answers
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Rows" default(20)
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry}
// @Router /api/leaderboard [get]
func (c *LeaderboardController) Top(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	entries, err := c.LeaderboardService.Top(ctx.Request.Context(), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// MyRank godoc
// @Summary The caller's rank
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/leaderboard/me [get]
func (c *LeaderboardController) MyRank(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	rank, err := c.LeaderboardService.RankOf(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"rank": rank})
}
