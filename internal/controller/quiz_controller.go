package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.StageQuizService
}

func NewQuizController(quizService *service.StageQuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type StageSubmitRequest struct {
	// Map of question id to selected option id. Missing questions count as
	// wrong.
	Answers map[uint]uint `json:"answers" binding:"required"`
}

// Submit godoc
// @Summary Submit stage quiz answers
// @Description Scores the attempt, updates the progress ledger and, on a
// @Description course-completing pass, issues the certificate.
// @Tags stages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stage ID"
// @Param body body StageSubmitRequest true "Selected answers"
// @Success 200 {object} util.Response{data=service.StageQuizResult}
// @Failure 403 {object} util.Response "Stage is locked"
// @Failure 404 {object} util.Response
// @Router /api/stages/{id}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}
	stageID := util.MustParseUint(ctx.Param("id"))

	var req StageSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.Submit(claims.UserID, stageID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStageNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStageLocked):
			util.Error(ctx, 403, "Stage is locked")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}
