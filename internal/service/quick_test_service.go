package service

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"accounting_academy_backend/pkg/logger"
	"accounting_academy_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuickTestService drives the multi-level timed quiz flow. Runner state lives
// in the session store; one result row is written per level when the sitting
// completes.
type QuickTestService struct {
	TestRepo     *repository.QuickTestRepository
	ResultRepo   *repository.QuickTestResultRepository
	Certificates *CertificateService
	Sessions     SessionStore
	Cfg          *config.Config
	DB           *gorm.DB

	// now is swapped out in tests to make level durations deterministic.
	now func() time.Time
}

func NewQuickTestService(testRepo *repository.QuickTestRepository, resultRepo *repository.QuickTestResultRepository, certificates *CertificateService, sessions SessionStore, cfg *config.Config, db *gorm.DB) *QuickTestService {
	return &QuickTestService{
		TestRepo:     testRepo,
		ResultRepo:   resultRepo,
		Certificates: certificates,
		Sessions:     sessions,
		Cfg:          cfg,
		DB:           db,
		now:          time.Now,
	}
}

// RunnerIdentity is the injected current-session identity: either a user id
// or a guest display name.
type RunnerIdentity struct {
	UserID    uint
	GuestName string
}

type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// SessionView is what the client sees: the current question without correct
// flags, plus progress counters.
type SessionView struct {
	AttemptID          string        `json:"attemptId"`
	TestTitle          string        `json:"testTitle"`
	LevelIndex         int           `json:"levelIndex"`
	LevelCount         int           `json:"levelCount"`
	LevelID            uint          `json:"levelId"`
	LevelTitle         string        `json:"levelTitle"`
	QuestionIndex      int           `json:"questionIndex"`
	QuestionCount      int           `json:"questionCount"`
	AnsweredCount      int           `json:"answeredCount"`
	CountdownRemaining int           `json:"countdownRemaining"`
	Question           *QuestionView `json:"question,omitempty"`
	Completed          bool          `json:"completed"`
}

type LevelResultView struct {
	LevelID          uint `json:"levelId"`
	Score            int  `json:"score"`
	TotalQuestions   int  `json:"totalQuestions"`
	TimeSpentSeconds int  `json:"timeSpentSeconds"`
}

// AttemptSummary reports a finished sitting.
type AttemptSummary struct {
	AttemptID          string            `json:"attemptId"`
	Levels             []LevelResultView `json:"levels"`
	TotalScore         int               `json:"totalScore"`
	TotalQuestions     int               `json:"totalQuestions"`
	Percentage         float64           `json:"percentage"`
	CertificateOffered bool              `json:"certificateOffered"`
}

// AnswerOutcome is returned by Answer: either the next view or, after the
// last level, the summary.
type AnswerOutcome struct {
	View    *SessionView    `json:"view,omitempty"`
	Summary *AttemptSummary `json:"summary,omitempty"`
}

func (s *QuickTestService) view(session *RunnerSession, test *model.QuickTest) *SessionView {
	v := &SessionView{
		AttemptID:  session.AttemptID,
		TestTitle:  test.Title,
		LevelIndex: session.LevelIndex,
		LevelCount: len(session.Levels),
		Completed:  session.Completed,
	}

	if remaining := session.ReadyAt.Sub(s.now()); remaining > 0 {
		v.CountdownRemaining = int(remaining.Seconds()) + 1
	}

	level := session.CurrentLevel()
	if level == nil || session.Completed {
		return v
	}

	v.LevelID = level.LevelID
	v.LevelTitle = level.Title
	v.QuestionIndex = session.QuestionIndex
	v.QuestionCount = len(level.Questions)
	for _, q := range level.Questions {
		if _, ok := session.Answers[q.ID]; ok {
			v.AnsweredCount++
		}
	}

	if session.QuestionIndex >= 0 && session.QuestionIndex < len(level.Questions) {
		q := level.Questions[session.QuestionIndex]
		qv := &QuestionView{ID: q.ID, Text: q.Text}
		for _, o := range q.Options {
			qv.Options = append(qv.Options, OptionView{ID: o.ID, Text: o.Text})
		}
		v.Question = qv
	}
	return v
}

// Start opens a session for a published test reached via its share code. The
// per-session shuffle happens here, once.
func (s *QuickTestService) Start(ctx context.Context, identity RunnerIdentity, shareCode string) (*SessionView, error) {
	test, err := s.TestRepo.FindByShareCode(shareCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuickTestNotFound
		}
		return nil, err
	}
	if !test.IsPublished {
		return nil, util.ErrTestNotPublished
	}
	if len(test.Levels) == 0 {
		return nil, errors.New("test has no levels")
	}

	now := s.now()
	readyAt := now.Add(time.Duration(s.Cfg.Quiz.StartCountdownSeconds) * time.Second)

	session := &RunnerSession{
		AttemptID:      model.GenerateUUID(),
		QuickTestID:    test.ID,
		UserID:         identity.UserID,
		GuestName:      identity.GuestName,
		Answers:        make(map[string]model.AnswerRecord),
		LevelDurations: make(map[uint]int),
		StartedAt:      now,
		ReadyAt:        readyAt,
		LevelStartedAt: readyAt,
	}
	for _, level := range test.Levels {
		session.Levels = append(session.Levels, RunnerLevel{
			LevelID:   level.ID,
			Title:     level.Title,
			Questions: ShuffleQuestions(level.Questions),
		})
	}

	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, test), nil
}

func (s *QuickTestService) load(ctx context.Context, attemptID string, identity RunnerIdentity) (*RunnerSession, *model.QuickTest, error) {
	session, err := s.Sessions.Get(ctx, attemptID)
	if err != nil {
		return nil, nil, err
	}
	if session.UserID != identity.UserID {
		return nil, nil, util.ErrPermissionDenied
	}
	// Guests all share UserID 0, so they are told apart by name.
	if session.UserID == 0 && session.GuestName != identity.GuestName {
		return nil, nil, util.ErrPermissionDenied
	}

	test, err := s.TestRepo.FindByID(session.QuickTestID)
	if err != nil {
		return nil, nil, err
	}
	return session, test, nil
}

// Current returns the session view, e.g. after a reload.
func (s *QuickTestService) Current(ctx context.Context, attemptID string, identity RunnerIdentity) (*SessionView, error) {
	session, test, err := s.load(ctx, attemptID, identity)
	if err != nil {
		return nil, err
	}
	return s.view(session, test), nil
}

// Answer commits an answer for a question of the current level, replacing any
// prior answer for it, and advances the runner. When the level's question set
// becomes fully answered the elapsed level time is captured, the clock resets
// and the runner moves to the next level or submits.
func (s *QuickTestService) Answer(ctx context.Context, attemptID string, identity RunnerIdentity, questionID, optionID string) (*AnswerOutcome, error) {
	session, test, err := s.load(ctx, attemptID, identity)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, util.ErrSessionNotFound
	}
	if s.now().Before(session.ReadyAt) {
		return nil, util.ErrSessionNotReady
	}
	if optionID == "" {
		return nil, util.ErrNoOptionSelected
	}

	level := session.CurrentLevel()
	if level == nil {
		return nil, util.ErrSessionNotFound
	}

	questionIndex := -1
	var question *model.QuickTestQuestion
	for i := range level.Questions {
		if level.Questions[i].ID == questionID {
			questionIndex = i
			question = &level.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, errors.New("question does not belong to the current level")
	}

	validOption := false
	for _, o := range question.Options {
		if o.ID == optionID {
			validOption = true
			break
		}
	}
	if !validOption {
		return nil, errors.New("option does not belong to the question")
	}

	session.Answers[questionID] = model.AnswerRecord{
		QuestionID:       questionID,
		SelectedOptionID: optionID,
		IsCorrect:        optionID == question.CorrectOptionID(),
	}

	now := s.now()
	next := FindNextUnansweredIndex(questionIndex, level.Questions, session.Answers)
	if next >= 0 {
		session.QuestionIndex = next
		if err := s.Sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		return &AnswerOutcome{View: s.view(session, test)}, nil
	}

	// Level complete: capture its duration and reset the clock.
	session.LevelDurations[level.LevelID] = int(now.Sub(session.LevelStartedAt).Seconds())
	session.LevelIndex++
	session.QuestionIndex = 0
	session.LevelStartedAt = now

	if session.LevelIndex < len(session.Levels) {
		if err := s.Sessions.Save(ctx, session); err != nil {
			return nil, err
		}
		return &AnswerOutcome{View: s.view(session, test)}, nil
	}

	summary, err := s.submit(ctx, session, test, now)
	if err != nil {
		return nil, err
	}
	return &AnswerOutcome{Summary: summary}, nil
}

// Skip changes only the displayed question, using the same wrap-around scan
// over the unmodified answer set. Skipping is a no-op when the current
// question is the only one left unanswered.
func (s *QuickTestService) Skip(ctx context.Context, attemptID string, identity RunnerIdentity) (*SessionView, error) {
	session, test, err := s.load(ctx, attemptID, identity)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, util.ErrSessionNotFound
	}
	if s.now().Before(session.ReadyAt) {
		return nil, util.ErrSessionNotReady
	}

	level := session.CurrentLevel()
	if level == nil {
		return nil, util.ErrSessionNotFound
	}

	next := FindNextUnansweredIndex(session.QuestionIndex, level.Questions, session.Answers)
	if next == -1 || next == session.QuestionIndex {
		return nil, util.ErrNothingToSkip
	}

	session.QuestionIndex = next
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return s.view(session, test), nil
}

// submit persists one result row per level. The writes are sequential and
// independent; a failure partway leaves the earlier rows in place and
// surfaces the error.
func (s *QuickTestService) submit(ctx context.Context, session *RunnerSession, test *model.QuickTest, completedAt time.Time) (*AttemptSummary, error) {
	summary := &AttemptSummary{AttemptID: session.AttemptID}

	for _, level := range session.Levels {
		score, records := ScoreLevel(level.Questions, session.Answers)
		duration := session.LevelDurations[level.LevelID]

		result := &model.QuickTestResult{
			AttemptID:        session.AttemptID,
			QuickTestID:      session.QuickTestID,
			LevelID:          level.LevelID,
			UserID:           session.UserID,
			GuestName:        session.GuestName,
			Score:            score,
			TotalQuestions:   len(level.Questions),
			TimeSpentSeconds: duration,
			Answers:          records,
			StartedAt:        completedAt.Add(-time.Duration(duration) * time.Second),
			CompletedAt:      completedAt,
		}
		if err := s.ResultRepo.Create(result); err != nil {
			logger.Log.Error("quick test result write failed",
				zap.String("attemptId", session.AttemptID),
				zap.Uint("levelId", level.LevelID),
				zap.Error(err))
			return nil, err
		}

		summary.Levels = append(summary.Levels, LevelResultView{
			LevelID:          level.LevelID,
			Score:            score,
			TotalQuestions:   len(level.Questions),
			TimeSpentSeconds: duration,
		})
		summary.TotalScore += score
		summary.TotalQuestions += len(level.Questions)
	}

	if summary.TotalQuestions > 0 {
		summary.Percentage = float64(summary.TotalScore) / float64(summary.TotalQuestions) * 100
	}
	if test.CertificateThreshold != nil && summary.Percentage >= float64(*test.CertificateThreshold) {
		summary.CertificateOffered = true
	}

	session.Completed = true
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	monitoring.QuickTestSubmissions.Inc()
	return summary, nil
}

// CompletionPDF renders the downloadable artifact for a completed sitting
// that cleared the test's certificate threshold. Unlike course certificates
// it is generated on the fly and never persisted.
func (s *QuickTestService) CompletionPDF(ctx context.Context, attemptID string, identity RunnerIdentity) ([]byte, error) {
	session, test, err := s.load(ctx, attemptID, identity)
	if err != nil {
		return nil, err
	}
	if !session.Completed {
		return nil, util.ErrSessionNotFound
	}

	results, err := s.ResultRepo.ListByAttempt(attemptID)
	if err != nil {
		return nil, err
	}

	totalScore, totalQuestions := 0, 0
	for _, r := range results {
		totalScore += r.Score
		totalQuestions += r.TotalQuestions
	}
	percentage := 0.0
	if totalQuestions > 0 {
		percentage = float64(totalScore) / float64(totalQuestions) * 100
	}

	if test.CertificateThreshold == nil || percentage < float64(*test.CertificateThreshold) {
		return nil, util.ErrNotEligible
	}

	name := session.GuestName
	if session.UserID != 0 {
		if user, err := s.Certificates.UserRepo.FindByID(session.UserID); err == nil {
			name = user.Name
		}
	}

	return s.Certificates.RenderQuickTestPDF(name, test.Title, percentage)
}

// TestPreview is the share-link landing view: enough to decide whether to
// join, without any question content. BestPerLevel is filled only for
// signed-in callers.
type TestPreview struct {
	Title                string                         `json:"title"`
	Description          string                         `json:"description"`
	LevelCount           int                            `json:"levelCount"`
	QuestionCount        int                            `json:"questionCount"`
	CertificateThreshold *int                           `json:"certificateThreshold,omitempty"`
	BestPerLevel         map[uint]model.QuickTestResult `json:"bestPerLevel,omitempty"`
}

// Preview describes a published test to anyone holding its share code.
func (s *QuickTestService) Preview(shareCode string, userID uint) (*TestPreview, error) {
	test, err := s.TestRepo.FindByShareCode(shareCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuickTestNotFound
		}
		return nil, err
	}
	if !test.IsPublished {
		return nil, util.ErrTestNotPublished
	}

	preview := &TestPreview{
		Title:                test.Title,
		Description:          test.Description,
		LevelCount:           len(test.Levels),
		CertificateThreshold: test.CertificateThreshold,
	}
	for _, level := range test.Levels {
		preview.QuestionCount += len(level.Questions)
	}

	if userID != 0 {
		best, err := s.ResultRepo.BestPerLevel(userID, test.ID)
		if err == nil && len(best) > 0 {
			preview.BestPerLevel = best
		}
	}
	return preview, nil
}

// BestPerLevel is the derived "best attempt per level" view, addressed by
// the test's share code like the runner itself.
func (s *QuickTestService) BestPerLevel(userID uint, shareCode string) (map[uint]model.QuickTestResult, error) {
	test, err := s.TestRepo.FindByShareCode(shareCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuickTestNotFound
		}
		return nil, err
	}
	return s.ResultRepo.BestPerLevel(userID, test.ID)
}

// Results returns the caller's persisted per-level rows for a finished
// sitting. Ownership goes through the same session gate as the other
// session operations.
func (s *QuickTestService) Results(ctx context.Context, attemptID string, identity RunnerIdentity) ([]model.QuickTestResult, error) {
	if _, _, err := s.load(ctx, attemptID, identity); err != nil {
		return nil, err
	}
	return s.ResultRepo.ListByAttempt(attemptID)
}

// ---- Admin CRUD ----

type QuickTestOptionInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuickTestQuestionInput struct {
	Text    string                 `json:"text" binding:"required"`
	Options []QuickTestOptionInput `json:"options" binding:"required,min=2"`
}

type QuickTestLevelInput struct {
	LevelNumber int                      `json:"levelNumber"`
	Title       string                   `json:"title"`
	Questions   []QuickTestQuestionInput `json:"questions" binding:"required,min=1"`
}

type QuickTestInput struct {
	Title                string                `json:"title" binding:"required"`
	Description          string                `json:"description"`
	IsPublished          bool                  `json:"isPublished"`
	CertificateThreshold *int                  `json:"certificateThreshold"`
	TimeLimitSeconds     int                   `json:"timeLimitSeconds"`
	Levels               []QuickTestLevelInput `json:"levels" binding:"required,min=1"`
}

// ValidateQuickTestInput enforces the design invariant the storage layer
// cannot: every question has exactly one correct option.
func ValidateQuickTestInput(input *QuickTestInput) error {
	if len(input.Levels) == 0 {
		return errors.New("test must have at least one level")
	}
	for li, level := range input.Levels {
		if len(level.Questions) == 0 {
			return fmt.Errorf("level %d has no questions", li+1)
		}
		for qi, q := range level.Questions {
			correct := 0
			for _, o := range q.Options {
				if o.IsCorrect {
					correct++
				}
			}
			if correct != 1 {
				return fmt.Errorf("level %d question %d: %v", li+1, qi+1, util.ErrQuestionNoCorrect)
			}
		}
	}
	return nil
}

func buildLevels(testID uint, inputs []QuickTestLevelInput) []model.QuickTestLevel {
	levels := make([]model.QuickTestLevel, 0, len(inputs))
	for i, in := range inputs {
		number := in.LevelNumber
		if number == 0 {
			number = i + 1
		}
		level := model.QuickTestLevel{
			QuickTestID: testID,
			LevelNumber: number,
			Title:       in.Title,
		}
		for _, q := range in.Questions {
			question := model.QuickTestQuestion{
				ID:   model.GenerateUUID(),
				Text: q.Text,
			}
			for _, o := range q.Options {
				question.Options = append(question.Options, model.QuickTestOption{
					ID:        model.GenerateUUID(),
					Text:      o.Text,
					IsCorrect: o.IsCorrect,
				})
			}
			level.Questions = append(level.Questions, question)
		}
		levels = append(levels, level)
	}
	return levels
}

func (s *QuickTestService) Create(input *QuickTestInput) (*model.QuickTest, error) {
	if err := ValidateQuickTestInput(input); err != nil {
		return nil, err
	}

	test := &model.QuickTest{
		Title:                input.Title,
		Description:          input.Description,
		ShareCode:            model.GenerateUUID(),
		IsPublished:          input.IsPublished,
		CertificateThreshold: input.CertificateThreshold,
		TimeLimitSeconds:     input.TimeLimitSeconds,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(test).Error; err != nil {
			return err
		}
		levels := buildLevels(test.ID, input.Levels)
		return tx.Create(&levels).Error
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// ImportJSON creates a test from a raw JSON document, rejecting malformed
// payloads before any write.
func (s *QuickTestService) ImportJSON(raw []byte) (*model.QuickTest, error) {
	var input QuickTestInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("malformed JSON import: %v", err)
	}
	if input.Title == "" {
		return nil, errors.New("import is missing a title")
	}
	return s.Create(&input)
}

// Update replaces the test and its levels in one transaction.
func (s *QuickTestService) Update(testID uint, input *QuickTestInput) (*model.QuickTest, error) {
	if err := ValidateQuickTestInput(input); err != nil {
		return nil, err
	}

	test, err := s.TestRepo.FindByID(testID)
	if err != nil {
		return nil, err
	}

	test.Title = input.Title
	test.Description = input.Description
	test.IsPublished = input.IsPublished
	test.CertificateThreshold = input.CertificateThreshold
	test.TimeLimitSeconds = input.TimeLimitSeconds

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(test).Error; err != nil {
			return err
		}
		if err := tx.Where("quick_test_id = ?", testID).Delete(&model.QuickTestLevel{}).Error; err != nil {
			return err
		}
		levels := buildLevels(testID, input.Levels)
		return tx.Create(&levels).Error
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

func (s *QuickTestService) Delete(testID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quick_test_id = ?", testID).Delete(&model.QuickTestLevel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.QuickTest{}, testID).Error
	})
}

func (s *QuickTestService) SetPublished(testID uint, published bool) error {
	return s.DB.Model(&model.QuickTest{}).
		Where("id = ?", testID).
		Update("is_published", published).
		Error
}

func (s *QuickTestService) List() ([]model.QuickTest, error) {
	return s.TestRepo.List()
}

func (s *QuickTestService) GetWithLevels(testID uint) (*model.QuickTest, error) {
	return s.TestRepo.FindByIDWithLevels(testID)
}

func (s *QuickTestService) ListResults(testID uint, page, limit int) ([]model.QuickTestResult, int64, error) {
	return s.ResultRepo.ListByTest(testID, page, limit)
}
