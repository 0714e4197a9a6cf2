package controller

import (
	"accounting_academy_backend/internal/service"
	"accounting_academy_backend/internal/util"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// Mine godoc
// @Summary The caller's course certificate
// @Tags certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 404 {object} util.Response "Not issued yet"
// @Router /api/certificates/mine [get]
func (c *CertificateController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	cert, err := c.CertificateService.GetForUser(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrCertNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, cert)
}

// Download godoc
// @Summary Download the caller's certificate as PDF
// @Tags certificates
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 404 {object} util.Response
// @Router /api/certificates/mine/pdf [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil || claims.UserID == 0 {
		util.Unauthorized(ctx)
		return
	}

	cert, err := c.CertificateService.GetForUser(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrCertNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	user, err := c.CertificateService.UserRepo.FindByID(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	pdf, err := c.CertificateService.RenderPDF(cert, user.Name)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="certificate-%s.pdf"`, cert.CertificateNumber))
	ctx.Data(200, "application/pdf", pdf)
}

// Verify godoc
// @Summary Publicly verify a certificate by number
// @Description Backs the QR code on the printed certificate. No auth.
// @Tags certificates
// @Produce json
// @Param number path string true "Certificate number"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/certificates/verify/{number} [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	cert, user, err := c.CertificateService.VerifyByNumber(ctx.Param("number"))
	if err != nil {
		if errors.Is(err, util.ErrCertNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"certificateNumber": cert.CertificateNumber,
		"recipient":         user.Name,
		"totalScore":        cert.TotalScore,
		"totalStages":       cert.TotalStages,
		"completionDate":    cert.CompletionDate.Format(util.DateFormat),
	})
}

// AdminList godoc
// @Summary List issued certificates (admin)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/certificates [get]
func (c *CertificateController) AdminList(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	certs, total, err := c.CertificateService.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: certs, Total: total, Page: page, Limit: limit})
}

// AdminIssue godoc
// @Summary Issue a certificate for an eligible user (admin)
// @Description Fails with 409 when already issued, 403 when not eligible.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/admin/certificates/users/{id} [post]
func (c *CertificateController) AdminIssue(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("id"))

	issued, err := c.CertificateService.IssueIfEligible(userID, "admin")
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCertificateExists):
			util.Error(ctx, 409, "Certificate already issued")
		case errors.Is(err, util.ErrNotEligible):
			util.Error(ctx, 403, "User is not eligible")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"issued": issued})
}
