package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"errors"
)

// DashboardService aggregates the read models for the student home screen
// and the admin overview.
type DashboardService struct {
	Stages        *StageService
	Certificates  *CertificateService
	Timers        *TimerService
	ProgressRepo  *repository.ProgressRepository
	UserRepo      *repository.UserRepository
	StageRepo     *repository.StageRepository
	CertRepo      *repository.CertificateRepository
	TestRepo      *repository.QuickTestRepository
	ViolationRepo *repository.ViolationRepository
}

func NewDashboardService(stages *StageService, certificates *CertificateService, timers *TimerService, progressRepo *repository.ProgressRepository, userRepo *repository.UserRepository, stageRepo *repository.StageRepository, certRepo *repository.CertificateRepository, testRepo *repository.QuickTestRepository, violationRepo *repository.ViolationRepository) *DashboardService {
	return &DashboardService{
		Stages:        stages,
		Certificates:  certificates,
		Timers:        timers,
		ProgressRepo:  progressRepo,
		UserRepo:      userRepo,
		StageRepo:     stageRepo,
		CertRepo:      certRepo,
		TestRepo:      testRepo,
		ViolationRepo: violationRepo,
	}
}

type StudentDashboard struct {
	TotalCorrect      int         `json:"totalCorrect"`
	TotalWrong        int         `json:"totalWrong"`
	ScorePercent      float64     `json:"scorePercent"`
	CompletedStages   int         `json:"completedStages"`
	TotalStages       int         `json:"totalStages"`
	Stages            []StageView `json:"stages"`
	CertificateIssued bool        `json:"certificateIssued"`
	CertificateNumber string      `json:"certificateNumber,omitempty"`
	Timer             *TimerState `json:"timer"`
}

func (s *DashboardService) ForStudent(userID uint) (*StudentDashboard, error) {
	stages, err := s.Stages.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	progress, err := s.ProgressRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}

	timer, err := s.Timers.Get(userID)
	if err != nil {
		return nil, err
	}

	dash := &StudentDashboard{
		TotalCorrect: progress.TotalCorrect,
		TotalWrong:   progress.TotalWrong,
		ScorePercent: progress.ScorePercent(),
		TotalStages:  len(stages),
		Stages:       stages,
		Timer:        timer,
	}
	for _, st := range stages {
		if st.Completed {
			dash.CompletedStages++
		}
	}

	cert, err := s.Certificates.GetForUser(userID)
	if err == nil {
		dash.CertificateIssued = true
		dash.CertificateNumber = cert.CertificateNumber
	} else if !errors.Is(err, util.ErrCertNotFound) {
		return nil, err
	}

	return dash, nil
}

type AdminOverview struct {
	StudentCount     int64                     `json:"studentCount"`
	StageCount       int64                     `json:"stageCount"`
	CertificateCount int64                     `json:"certificateCount"`
	QuickTestCount   int                       `json:"quickTestCount"`
	ViolationCount   int64                     `json:"violationCount"`
	RecentViolations []model.ScreenshotAttempt `json:"recentViolations"`
}

func (s *DashboardService) ForAdmin() (*AdminOverview, error) {
	overview := &AdminOverview{}

	var err error
	if overview.StudentCount, err = s.UserRepo.CountStudents(); err != nil {
		return nil, err
	}
	if overview.StageCount, err = s.StageRepo.Count(); err != nil {
		return nil, err
	}
	if _, overview.CertificateCount, err = s.CertRepo.List(1, 1); err != nil {
		return nil, err
	}

	tests, err := s.TestRepo.List()
	if err != nil {
		return nil, err
	}
	overview.QuickTestCount = len(tests)

	violations, total, err := s.ViolationRepo.List(0, 1, 10)
	if err != nil {
		return nil, err
	}
	overview.ViolationCount = total
	overview.RecentViolations = violations

	return overview, nil
}
