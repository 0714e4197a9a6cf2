package service

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// CertificateService owns eligibility and issuance. Issuance is at-most-once
// per user: the insert runs in a transaction and the unique index on user_id
// is the authority, so the auto path and the admin path cannot both win.
type CertificateService struct {
	CertRepo     *repository.CertificateRepository
	ProgressRepo *repository.ProgressRepository
	StageRepo    *repository.StageRepository
	UserRepo     *repository.UserRepository
	Notifier     *NotificationService
	Cfg          *config.Config
	DB           *gorm.DB
}

func NewCertificateService(certRepo *repository.CertificateRepository, progressRepo *repository.ProgressRepository, stageRepo *repository.StageRepository, userRepo *repository.UserRepository, notifier *NotificationService, cfg *config.Config, db *gorm.DB) *CertificateService {
	return &CertificateService{
		CertRepo:     certRepo,
		ProgressRepo: progressRepo,
		StageRepo:    stageRepo,
		UserRepo:     userRepo,
		Notifier:     notifier,
		Cfg:          cfg,
		DB:           db,
	}
}

// Eligible is the certificate eligibility predicate. Every call site
// (dashboard, auto-issuance, admin list) uses this one function with the one
// configured threshold.
func Eligible(completedStages, totalStages, totalCorrect, totalWrong int, scoreThreshold float64) bool {
	if totalStages == 0 || completedStages != totalStages {
		return false
	}
	answered := totalCorrect + totalWrong
	if answered == 0 {
		return false
	}
	return float64(totalCorrect)/float64(answered)*100 >= scoreThreshold
}

// EligibilityFor evaluates the predicate against the user's fresh aggregate.
func (s *CertificateService) EligibilityFor(userID uint) (bool, *model.UserProgress, int, error) {
	progress, err := s.ProgressRepo.GetOrCreate(userID)
	if err != nil {
		return false, nil, 0, err
	}

	totalStages, err := s.StageRepo.Count()
	if err != nil {
		return false, nil, 0, err
	}

	completed, err := s.ProgressRepo.CountCompleted(userID)
	if err != nil {
		return false, nil, 0, err
	}

	ok := Eligible(int(completed), int(totalStages), progress.TotalCorrect, progress.TotalWrong, s.Cfg.Certificate.ScoreThreshold)
	return ok, progress, int(totalStages), nil
}

// IssueIfEligible issues a certificate when the predicate holds. Returns
// false with ErrNotEligible when it does not, and false with
// ErrCertificateExists when one is already on file.
func (s *CertificateService) IssueIfEligible(userID uint, issuedBy string) (bool, error) {
	ok, progress, totalStages, err := s.EligibilityFor(userID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, util.ErrNotEligible
	}

	cert := &model.Certificate{
		UserID:            userID,
		CertificateNumber: model.GenerateUUID(),
		IssuedBy:          issuedBy,
		TotalStages:       totalStages,
		TotalScore:        progress.ScorePercent(),
		CompletionDate:    time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.Certificate
		err := tx.Where("user_id = ?", userID).First(&existing).Error
		if err == nil {
			return util.ErrCertificateExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(cert).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, util.ErrCertificateExists
		}
		return false, err
	}

	s.Notifier.Notify(userID, model.NotificationCertificateIssued,
		"Certificate issued",
		fmt.Sprintf("Congratulations! Certificate %s has been issued.", cert.CertificateNumber))

	return true, nil
}

func (s *CertificateService) GetForUser(userID uint) (*model.Certificate, error) {
	cert, err := s.CertRepo.FindByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCertNotFound
	}
	return cert, err
}

// VerifyByNumber backs the public QR verification link.
func (s *CertificateService) VerifyByNumber(number string) (*model.Certificate, *model.User, error) {
	cert, err := s.CertRepo.FindByNumber(number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrCertNotFound
		}
		return nil, nil, err
	}
	user, err := s.UserRepo.FindByID(cert.UserID)
	if err != nil {
		return nil, nil, err
	}
	return cert, user, nil
}

func (s *CertificateService) List(page, limit int) ([]model.Certificate, int64, error) {
	return s.CertRepo.List(page, limit)
}

// RenderPDF draws the certificate artifact: title, recipient, score, date and
// a QR code pointing at the public verification URL.
func (s *CertificateService) RenderPDF(cert *model.Certificate, recipientName string) ([]byte, error) {
	verifyURL := fmt.Sprintf("%s/verify/%s", s.Cfg.Certificate.PublicBaseURL, cert.CertificateNumber)

	qrPNG, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFillColor(250, 249, 245)
	pdf.Rect(0, 0, 297, 210, "F")
	pdf.SetDrawColor(180, 150, 80)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Times", "B", 34)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetY(42)
	pdf.CellFormat(0, 14, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 14)
	pdf.SetY(68)
	pdf.CellFormat(0, 8, "This is to certify that", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "B", 26)
	pdf.SetY(80)
	pdf.CellFormat(0, 12, recipientName, "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 14)
	pdf.SetY(98)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("has completed all %d stages of the Accounting Academy course", cert.TotalStages),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8,
		fmt.Sprintf("with an overall score of %.1f%%", cert.TotalScore),
		"", 1, "C", false, 0, "")

	pdf.SetFont("Times", "I", 12)
	pdf.SetY(122)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Issued by %s on %s", s.Cfg.Certificate.Issuer, cert.CompletionDate.Format(util.DateFormat)),
		"", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Certificate No. %s", cert.CertificateNumber),
		"", 1, "C", false, 0, "")

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verify-qr", 128, 145, 40, 40, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderQuickTestPDF draws the lighter quick-test completion artifact. It is
// generated per download and carries no certificate number or QR code.
func (s *CertificateService) RenderQuickTestPDF(recipientName, testTitle string, percentage float64) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFillColor(250, 249, 245)
	pdf.Rect(0, 0, 297, 210, "F")
	pdf.SetDrawColor(90, 110, 160)
	pdf.SetLineWidth(1.0)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Times", "B", 30)
	pdf.SetTextColor(40, 40, 40)
	pdf.SetY(50)
	pdf.CellFormat(0, 14, "Certificate of Achievement", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 14)
	pdf.SetY(78)
	pdf.CellFormat(0, 8, "Awarded to", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "B", 24)
	pdf.SetY(90)
	pdf.CellFormat(0, 12, recipientName, "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 14)
	pdf.SetY(108)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("for passing \"%s\" with a score of %.1f%%", testTitle, percentage),
		"", 1, "C", false, 0, "")

	pdf.SetFont("Times", "I", 12)
	pdf.SetY(130)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Issued by %s on %s", s.Cfg.Certificate.Issuer, time.Now().Format(util.DateFormat)),
		"", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
