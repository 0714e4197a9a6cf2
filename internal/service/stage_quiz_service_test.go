package service

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"errors"
	"testing"

	"gorm.io/gorm"
)

// quiz fixture: the full service graph over an in-memory database.
type quizFixture struct {
	db           *gorm.DB
	cfg          *config.Config
	stages       *StageService
	quiz         *StageQuizService
	certificates *CertificateService
	progressRepo *repository.ProgressRepository
	stageRepo    *repository.StageRepository
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()

	stageRepo := repository.NewStageRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	userRepo := repository.NewUserRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	notificaRepo := repository.NewNotificationRepository(db)

	storage := NewStorageService(cfg)
	stages := NewStageService(stageRepo, progressRepo, storage, cfg, db)
	notifier := NewNotificationService(notificaRepo, nil)
	certificates := NewCertificateService(certRepo, progressRepo, stageRepo, userRepo, notifier, cfg, db)
	quiz := NewStageQuizService(stageRepo, progressRepo, stages, certificates, notifier, nil, db)

	return &quizFixture{
		db:           db,
		cfg:          cfg,
		stages:       stages,
		quiz:         quiz,
		certificates: certificates,
		progressRepo: progressRepo,
		stageRepo:    stageRepo,
	}
}

func (f *quizFixture) seedUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{Name: "Asha", Email: "asha@example.com", Password: "x", Role: model.Student}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *quizFixture) seedStage(t *testing.T, number int, questionCount int) *model.TestStage {
	t.Helper()
	input := StageInput{
		StageNumber: number,
		Title:       "Stage",
	}
	for i := 0; i < questionCount; i++ {
		input.Questions = append(input.Questions, StageQuestionInput{
			Text:         "q",
			Options:      []string{"right", "wrong"},
			CorrectIndex: 0,
		})
	}
	stage, err := f.stages.CreateStage(input)
	if err != nil {
		t.Fatalf("seed stage %d: %v", number, err)
	}
	return stage
}

// answersFor builds a submission with the given number of correct picks; the
// rest select a wrong option.
func answersFor(t *testing.T, f *quizFixture, stageID uint, correctPicks int) map[uint]uint {
	t.Helper()
	stage, err := f.stageRepo.FindByIDWithQuestions(stageID)
	if err != nil {
		t.Fatalf("load stage: %v", err)
	}

	answers := map[uint]uint{}
	for i, q := range stage.Questions {
		var rightID, wrongID uint
		for _, o := range q.Options {
			if o.IsCorrect {
				rightID = o.ID
			} else {
				wrongID = o.ID
			}
		}
		if i < correctPicks {
			answers[q.ID] = rightID
		} else {
			answers[q.ID] = wrongID
		}
	}
	return answers
}

func TestScoreStageQuizCountsUnansweredAsWrong(t *testing.T) {
	questions := []model.StageQuestion{
		{BaseModel: model.BaseModel{ID: 1}, Options: []model.StageOption{
			{BaseModel: model.BaseModel{ID: 10}, IsCorrect: true},
			{BaseModel: model.BaseModel{ID: 11}},
		}},
		{BaseModel: model.BaseModel{ID: 2}, Options: []model.StageOption{
			{BaseModel: model.BaseModel{ID: 20}, IsCorrect: true},
			{BaseModel: model.BaseModel{ID: 21}},
		}},
		{BaseModel: model.BaseModel{ID: 3}, Options: []model.StageOption{
			{BaseModel: model.BaseModel{ID: 30}, IsCorrect: true},
			{BaseModel: model.BaseModel{ID: 31}},
		}},
	}

	correct, wrong := ScoreStageQuiz(questions, map[uint]uint{
		1: 10, // right
		2: 21, // wrong
		// 3 unanswered
	})
	if correct != 1 || wrong != 2 {
		t.Errorf("got %d/%d, want 1 correct, 2 wrong", correct, wrong)
	}
}

func TestPassedBoundaryInclusive(t *testing.T) {
	tests := []struct {
		correct, total int
		threshold      float64
		want           bool
	}{
		{3, 5, 60, true},  // exactly on the line
		{2, 5, 60, false}, // below
		{5, 5, 60, true},
		{0, 0, 60, false}, // empty quiz never passes
		{4, 5, 80, true},
	}
	for _, tt := range tests {
		if got := Passed(tt.correct, tt.total, tt.threshold); got != tt.want {
			t.Errorf("Passed(%d, %d, %v) = %v, want %v", tt.correct, tt.total, tt.threshold, got, tt.want)
		}
	}
}

func TestSubmitUpdatesProgressAndUnlocksNext(t *testing.T) {
	f := newQuizFixture(t)
	user := f.seedUser(t)
	stage1 := f.seedStage(t, 1, 5)
	stage2 := f.seedStage(t, 2, 5)

	// Stage 2 is locked until stage 1 is completed.
	if _, err := f.stages.GetForQuiz(user.ID, stage2.ID); !errors.Is(err, util.ErrStageLocked) {
		t.Fatalf("stage 2 before: err = %v, want ErrStageLocked", err)
	}

	result, err := f.quiz.Submit(user.ID, stage1.ID, answersFor(t, f, stage1.ID, 4))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Passed {
		t.Fatalf("4/5 at threshold 60 should pass: %+v", result)
	}
	if result.Correct != 4 || result.Wrong != 1 {
		t.Errorf("score = %d/%d, want 4/1", result.Correct, result.Wrong)
	}

	progress, err := f.progressRepo.Get(user.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.TotalCorrect != 4 || progress.TotalWrong != 1 {
		t.Errorf("aggregate = %d/%d, want 4/1", progress.TotalCorrect, progress.TotalWrong)
	}

	if _, err := f.stages.GetForQuiz(user.ID, stage2.ID); err != nil {
		t.Errorf("stage 2 should be unlocked after passing stage 1: %v", err)
	}
}

func TestSubmitReattemptReplacesStageContribution(t *testing.T) {
	f := newQuizFixture(t)
	user := f.seedUser(t)
	stage := f.seedStage(t, 1, 5)

	if _, err := f.quiz.Submit(user.ID, stage.ID, answersFor(t, f, stage.ID, 2)); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if _, err := f.quiz.Submit(user.ID, stage.ID, answersFor(t, f, stage.ID, 5)); err != nil {
		t.Fatalf("second attempt: %v", err)
	}

	progress, err := f.progressRepo.Get(user.ID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	// Totals reflect the latest attempt only, not the sum of attempts.
	if progress.TotalCorrect != 5 || progress.TotalWrong != 0 {
		t.Errorf("aggregate = %d/%d, want 5/0", progress.TotalCorrect, progress.TotalWrong)
	}
}

func TestSubmitCompletionIsSticky(t *testing.T) {
	f := newQuizFixture(t)
	user := f.seedUser(t)
	stage := f.seedStage(t, 1, 5)

	if _, err := f.quiz.Submit(user.ID, stage.ID, answersFor(t, f, stage.ID, 5)); err != nil {
		t.Fatalf("passing attempt: %v", err)
	}

	// A later failed attempt lowers the totals but keeps the stage complete.
	result, err := f.quiz.Submit(user.ID, stage.ID, answersFor(t, f, stage.ID, 1))
	if err != nil {
		t.Fatalf("failing attempt: %v", err)
	}
	if result.Passed {
		t.Fatal("1/5 should not pass")
	}

	sp, err := f.progressRepo.GetStageProgress(user.ID, stage.ID)
	if err != nil {
		t.Fatalf("stage progress: %v", err)
	}
	if !sp.Completed {
		t.Error("completion must survive a failed re-attempt")
	}
	if sp.CorrectCount != 1 || sp.WrongCount != 4 {
		t.Errorf("per-stage counts = %d/%d, want 1/4", sp.CorrectCount, sp.WrongCount)
	}
}

func TestSubmitIssuesCertificateOnCourseCompletion(t *testing.T) {
	f := newQuizFixture(t)
	user := f.seedUser(t)
	stage1 := f.seedStage(t, 1, 2)
	stage2 := f.seedStage(t, 2, 2)

	if _, err := f.quiz.Submit(user.ID, stage1.ID, answersFor(t, f, stage1.ID, 2)); err != nil {
		t.Fatalf("stage 1: %v", err)
	}
	result, err := f.quiz.Submit(user.ID, stage2.ID, answersFor(t, f, stage2.ID, 2))
	if err != nil {
		t.Fatalf("stage 2: %v", err)
	}
	if !result.CertificateIssued {
		t.Fatal("perfect run through all stages should issue the certificate")
	}

	cert, err := f.certificates.GetForUser(user.ID)
	if err != nil {
		t.Fatalf("certificate: %v", err)
	}
	if cert.TotalStages != 2 {
		t.Errorf("TotalStages = %d, want 2", cert.TotalStages)
	}

	// At most one, ever.
	if _, err := f.certificates.IssueIfEligible(user.ID, "admin"); !errors.Is(err, util.ErrCertificateExists) {
		t.Errorf("second issue = %v, want ErrCertificateExists", err)
	}
}
