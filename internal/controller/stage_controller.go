package controller

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type StageController struct {
	StageService *service.StageService
}

func NewStageController(stageService *service.StageService) *StageController {
	return &StageController{StageService: stageService}
}

// List godoc
// @Summary List stages with the caller's lock and completion state
// @Tags stages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.StageView}
// @Router /api/stages [get]
func (c *StageController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	stages, err := c.StageService.ListForUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// Question bodies are served by the quiz endpoint, not the listing.
	for i := range stages {
		stages[i].Questions = nil
	}
	util.Success(ctx, stages)
}

type stageOptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type stageQuestionView struct {
	ID      uint              `json:"id"`
	Text    string            `json:"text"`
	Options []stageOptionView `json:"options"`
}

type stageQuizView struct {
	StageID              uint                `json:"stageId"`
	Title                string              `json:"title"`
	VideoURL             string              `json:"videoUrl,omitempty"`
	VideoRequiredPercent int                 `json:"videoRequiredPercent"`
	PassThresholdPercent float64             `json:"passThresholdPercent"`
	Questions            []stageQuestionView `json:"questions"`
}

// GetQuiz godoc
// @Summary Fetch a stage's questions for taking the quiz
// @Description Correct flags are stripped; a locked stage returns 403.
// @Tags stages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stage ID"
// @Success 200 {object} util.Response{data=stageQuizView}
// @Failure 403 {object} util.Response "Stage is locked"
// @Failure 404 {object} util.Response
// @Router /api/stages/{id}/quiz [get]
func (c *StageController) GetQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	stageID := util.MustParseUint(ctx.Param("id"))

	stage, err := c.StageService.GetForQuiz(claims.UserID, stageID)
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

	view := stageQuizView{
		StageID:              stage.ID,
		Title:                stage.Title,
		VideoURL:             stage.VideoURL,
		VideoRequiredPercent: stage.VideoRequiredPercent,
		PassThresholdPercent: c.StageService.PassThreshold(stage),
	}
	for _, q := range stage.Questions {
		qv := stageQuestionView{ID: q.ID, Text: q.Text}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, stageOptionView{ID: o.ID, Text: o.Text})
		}
		view.Questions = append(view.Questions, qv)
	}

	util.Success(ctx, view)
}

type VideoProgressRequest struct {
	WatchedPercent int `json:"watchedPercent" binding:"required,min=0,max=100"`
}

// ReportVideoProgress godoc
// @Summary Report how much of the stage video has been watched
// @Tags stages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stage ID"
// @Param body body VideoProgressRequest true "Watched percent"
// @Success 200 {object} util.Response{data=object}
// @Router /api/stages/{id}/video-progress [post]
func (c *StageController) ReportVideoProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	stageID := util.MustParseUint(ctx.Param("id"))

	var req VideoProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	completed, err := c.StageService.ReportVideoProgress(claims.UserID, stageID, req.WatchedPercent)
	if err != nil {
		if errors.Is(err, util.ErrStageNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"videoCompleted": completed})
}

// ---- Admin ----

// Create godoc
// @Summary Create a stage (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.StageInput true "Stage definition"
// @Success 201 {object} util.Response{data=model.TestStage}
// @Failure 400 {object} util.Response
// @Router /api/admin/stages [post]
func (c *StageController) Create(ctx *gin.Context) {
	var input service.StageInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stage, err := c.StageService.CreateStage(input)
	if err != nil {
		if errors.Is(err, util.ErrQuestionNoCorrect) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, stage)
}

// Update godoc
// @Summary Replace a stage and its question set (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stage ID"
// @Param body body service.StageInput true "Stage definition"
// @Success 200 {object} util.Response{data=model.TestStage}
// @Failure 404 {object} util.Response
// @Router /api/admin/stages/{id} [put]
func (c *StageController) Update(ctx *gin.Context) {
	stageID := util.MustParseUint(ctx.Param("id"))

	var input service.StageInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	stage, err := c.StageService.UpdateStage(stageID, input)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStageNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuestionNoCorrect):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, stage)
}

// Delete godoc
// @Summary Delete a stage (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stage ID"
// @Success 200 {object} util.Response
// @Router /api/admin/stages/{id} [delete]
func (c *StageController) Delete(ctx *gin.Context) {
	stageID := util.MustParseUint(ctx.Param("id"))
	if err := c.StageService.DeleteStage(stageID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadVideo godoc
// @Summary Upload or replace the stage video (admin)
// @Description The file is probed for duration before being stored.
// @Tags admin
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Stage ID"
// @Param file formData file true "Video file"
// @Success 200 {object} util.Response{data=model.TestStage}
// @Failure 400 {object} util.Response
// @Router /api/admin/stages/{id}/video [post]
func (c *StageController) UploadVideo(ctx *gin.Context) {
	stageID := util.MustParseUint(ctx.Param("id"))

	header, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "missing file")
		return
	}
	if !util.IsAllowedVideoFile(header.Filename) {
		util.BadRequest(ctx, "unsupported video format")
		return
	}

	stage, err := c.StageService.UploadVideo(ctx.Request.Context(), stageID, header)
	if err != nil {
		if errors.Is(err, util.ErrStageNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, stage)
}

// AdminList godoc
// @Summary List stages with questions and correct answers (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.TestStage}
// @Router /api/admin/stages [get]
func (c *StageController) AdminList(ctx *gin.Context) {
	stages, err := c.StageService.StageRepo.ListOrdered()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	full := make([]model.TestStage, 0, len(stages))
	for _, st := range stages {
		loaded, err := c.StageService.StageRepo.FindByIDWithQuestions(st.ID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		full = append(full, *loaded)
	}
	util.Success(ctx, full)
}
