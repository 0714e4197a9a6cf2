package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuickTestController struct {
	QuickTestService *service.QuickTestService
}

func NewQuickTestController(quickTestService *service.QuickTestService) *QuickTestController {
	return &QuickTestController{QuickTestService: quickTestService}
}

func runnerIdentity(ctx *gin.Context) (service.RunnerIdentity, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return service.RunnerIdentity{}, false
	}
	return service.RunnerIdentity{UserID: claims.UserID, GuestName: claims.Name}, true
}

// Preview godoc
// @Summary Share-link landing view for a quick test
// @Description Works without a token. Callers presenting a valid token also
// @Description get their best score per level.
// @Tags quick-tests
// @Produce json
// @Param code path string true "Share code"
// @Success 200 {object} util.Response{data=service.TestPreview}
// @Failure 403 {object} util.Response "Test not published"
// @Failure 404 {object} util.Response
// @Router /api/quick-tests/preview/{code} [get]
func (c *QuickTestController) Preview(ctx *gin.Context) {
	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	preview, err := c.QuickTestService.Preview(ctx.Param("code"), userID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuickTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrTestNotPublished):
			util.Error(ctx, 403, "Test is not published")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, preview)
}

// Start godoc
// @Summary Start a quick test session via its share code
// @Description Questions and options are shuffled per session. The session
// @Description opens after a short countdown.
// @Tags quick-tests
// @Produce json
// @Security BearerAuth
// @Param code path string true "Share code"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 403 {object} util.Response "Test not published"
// @Failure 404 {object} util.Response
// @Router /api/quick-tests/start/{code} [post]
func (c *QuickTestController) Start(ctx *gin.Context) {
	identity, ok := runnerIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuickTestService.Start(ctx.Request.Context(), identity, ctx.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuickTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrTestNotPublished):
			util.Error(ctx, 403, "Test is not published")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// Current godoc
// @Summary Current question of a running session
// @Tags quick-tests
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response "Session expired or unknown"
// @Router /api/quick-tests/sessions/{attemptId} [get]
func (c *QuickTestController) Current(ctx *gin.Context) {
	identity, ok := runnerIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuickTestService.Current(ctx.Request.Context(), ctx.Param("attemptId"), identity)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId"`
}

// Answer godoc
// @Summary Answer the current question
// @Description Advancing past the last unanswered question of the last level
// @Description finalizes the sitting and returns the summary instead of a view.
// @Tags quick-tests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Param body body AnswerRequest true "Selected option"
// @Success 200 {object} util.Response{data=service.AnswerOutcome}
// @Failure 400 {object} util.Response "No option selected"
// @Failure 409 {object} util.Response "Countdown still running"
// @Router /api/quick-tests/sessions/{attemptId}/answer [post]
func (c *QuickTestController) Answer(ctx *gin.Context) {
	identity, ok := runnerIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	outcome, err := c.QuickTestService.Answer(ctx.Request.Context(), ctx.Param("attemptId"), identity, req.QuestionID, req.OptionID)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, outcome)
}

// Skip godoc
// @Summary Skip to the next unanswered question
// @Tags quick-tests
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 409 {object} util.Response "Nothing to skip"
// @Router /api/quick-tests/sessions/{attemptId}/skip [post]
func (c *QuickTestController) Skip(ctx *gin.Context) {
	identity, ok := runnerIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.QuickTestService.Skip(ctx.Request.Context(), ctx.Param("attemptId"), identity)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Results godoc
// @Summary Per-level results of a finished sitting
// @Tags quick-tests
// @Produce json
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Success 200 {object} util.Response{data=[]model.QuickTestResult}
// @Router /api/quick-tests/sessions/{attemptId}/results [get]
func (c *QuickTestController) Results(ctx *gin.Context) {
	identity, ok := runnerIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	results, err := c.QuickTestService.Results(ctx.Request.Context(), ctx.Param("attemptId"), identity)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, results)
}

// BestPerLevel godoc
// @Summary Best score per level across the caller's attempts
// @Tags quick-tests
// @Produce json
// @Security BearerAuth
// @Param code path string true "Share code"
// @Success 200 {object} util.Response{data=map[uint]model.QuickTestResult}
// @Router /api/quick-tests/best/{code} [get]
func (c *QuickTestController) BestPerLevel(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	best, err := c.QuickTestService.BestPerLevel(claims.UserID, ctx.Param("code"))
	if err != nil {
		if errors.Is(err, util.ErrQuickTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, best)
}

// CompletionPDF godoc
// @Summary Download the completion certificate for a passing sitting
// @Tags quick-tests
// @Produce application/pdf
// @Security BearerAuth
// @Param attemptId path string true "Attempt ID"
// @Success 200 {file} binary
// @Failure 403 {object} util.Response "Score below the certificate threshold"
// @Router /api/quick-tests/sessions/{attemptId}/certificate [get]
func (c *QuickTestController) CompletionPDF(ctx *gin.Context) {
	identity, ok := runnerIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	pdf, err := c.QuickTestService.CompletionPDF(ctx.Request.Context(), ctx.Param("attemptId"), identity)
	if err != nil {
		if errors.Is(err, util.ErrNotEligible) {
			util.Error(ctx, 403, "Score is below the certificate threshold")
		} else {
			c.sessionError(ctx, err)
		}
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="certificate.pdf"`)
	ctx.Data(200, "application/pdf", pdf)
}

func (c *QuickTestController) sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.Error(ctx, 404, "Session has expired or does not exist")
	case errors.Is(err, util.ErrSessionNotReady):
		util.Error(ctx, 409, "Countdown is still running")
	case errors.Is(err, util.ErrNoOptionSelected):
		util.BadRequest(ctx, "No option selected")
	case errors.Is(err, util.ErrNothingToSkip):
		util.Error(ctx, 409, "Nothing to skip")
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// ---- Admin ----

// AdminList godoc
// @Summary List quick tests (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.QuickTest}
// @Router /api/admin/quick-tests [get]
func (c *QuickTestController) AdminList(ctx *gin.Context) {
	tests, err := c.QuickTestService.List()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// AdminGet godoc
// @Summary Get a quick test with its levels (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quick test ID"
// @Success 200 {object} util.Response{data=model.QuickTest}
// @Router /api/admin/quick-tests/{id} [get]
func (c *QuickTestController) AdminGet(ctx *gin.Context) {
	test, err := c.QuickTestService.GetWithLevels(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, test)
}

// Create godoc
// @Summary Create a quick test (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.QuickTestInput true "Test definition"
// @Success 201 {object} util.Response{data=model.QuickTest}
// @Failure 400 {object} util.Response
// @Router /api/admin/quick-tests [post]
func (c *QuickTestController) Create(ctx *gin.Context) {
	var input service.QuickTestInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.QuickTestService.Create(&input)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, test)
}

// Import godoc
// @Summary Import a quick test from a JSON document (admin)
// @Description Malformed documents are rejected before any write.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=model.QuickTest}
// @Failure 400 {object} util.Response
// @Router /api/admin/quick-tests/import [post]
func (c *QuickTestController) Import(ctx *gin.Context) {
	raw, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		util.BadRequest(ctx, "unreadable body")
		return
	}

	test, err := c.QuickTestService.ImportJSON(raw)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, test)
}

// Update godoc
// @Summary Replace a quick test and its levels (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quick test ID"
// @Param body body service.QuickTestInput true "Test definition"
// @Success 200 {object} util.Response{data=model.QuickTest}
// @Router /api/admin/quick-tests/{id} [put]
func (c *QuickTestController) Update(ctx *gin.Context) {
	var input service.QuickTestInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.QuickTestService.Update(util.MustParseUint(ctx.Param("id")), &input)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, test)
}

// Delete godoc
// @Summary Delete a quick test (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quick test ID"
// @Success 200 {object} util.Response
// @Router /api/admin/quick-tests/{id} [delete]
func (c *QuickTestController) Delete(ctx *gin.Context) {
	if err := c.QuickTestService.Delete(util.MustParseUint(ctx.Param("id"))); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

type PublishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// SetPublished godoc
// @Summary Publish or unpublish a quick test (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quick test ID"
// @Param body body PublishRequest true "Published flag"
// @Success 200 {object} util.Response
// @Router /api/admin/quick-tests/{id}/published [put]
func (c *QuickTestController) SetPublished(ctx *gin.Context) {
	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.QuickTestService.SetPublished(util.MustParseUint(ctx.Param("id")), *req.Published); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// AdminResults godoc
// @Summary List results for a quick test (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Quick test ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/quick-tests/{id}/results [get]
func (c *QuickTestController) AdminResults(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	results, total, err := c.QuickTestService.ListResults(util.MustParseUint(ctx.Param("id")), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: results, Total: total, Page: page, Limit: limit})
}
