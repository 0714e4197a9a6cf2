package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

type quickTestFixture struct {
	db  *gorm.DB
	svc *QuickTestService
}

func newQuickTestFixture(t *testing.T) *quickTestFixture {
	t.Helper()
	db := newTestDB(t)
	cfg := newTestConfig()

	testRepo := repository.NewQuickTestRepository(db)
	resultRepo := repository.NewQuickTestResultRepository(db)
	userRepo := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	stageRepo := repository.NewStageRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	notifier := NewNotificationService(repository.NewNotificationRepository(db), nil)
	certificates := NewCertificateService(certRepo, progressRepo, stageRepo, userRepo, notifier, cfg, db)

	sessions := NewMemorySessionStore(time.Hour)
	svc := NewQuickTestService(testRepo, resultRepo, certificates, sessions, cfg, db)
	return &quickTestFixture{db: db, svc: svc}
}

func (f *quickTestFixture) seedTest(t *testing.T, levels, questionsPerLevel int, published bool) *model.QuickTest {
	t.Helper()
	threshold := 80
	input := &QuickTestInput{
		Title:                "Sprint",
		IsPublished:          published,
		CertificateThreshold: &threshold,
	}
	for l := 0; l < levels; l++ {
		level := QuickTestLevelInput{Title: "Level"}
		for q := 0; q < questionsPerLevel; q++ {
			level.Questions = append(level.Questions, QuickTestQuestionInput{
				Text: "q",
				Options: []QuickTestOptionInput{
					{Text: "right", IsCorrect: true},
					{Text: "wrong"},
				},
			})
		}
		input.Levels = append(input.Levels, level)
	}

	test, err := f.svc.Create(input)
	if err != nil {
		t.Fatalf("seed test: %v", err)
	}
	return test
}

// pickOption returns the current question's correct or wrong option id by
// checking the stored definition.
func (f *quickTestFixture) pickOption(t *testing.T, view *SessionView, correct bool) string {
	t.Helper()
	if view.Question == nil {
		t.Fatal("view has no current question")
	}

	var levels []model.QuickTestLevel
	if err := f.db.Find(&levels).Error; err != nil {
		t.Fatalf("load levels: %v", err)
	}
	for _, level := range levels {
		for _, q := range level.Questions {
			if q.ID != view.Question.ID {
				continue
			}
			for _, o := range q.Options {
				if o.IsCorrect == correct {
					return o.ID
				}
			}
		}
	}
	t.Fatalf("question %s not found in stored test", view.Question.ID)
	return ""
}

func TestQuickTestFullRun(t *testing.T) {
	f := newQuickTestFixture(t)
	test := f.seedTest(t, 2, 2, true)
	ctx := context.Background()
	identity := RunnerIdentity{GuestName: "Olena"}

	view, err := f.svc.Start(ctx, identity, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if view.LevelCount != 2 || view.QuestionCount != 2 {
		t.Fatalf("view = %+v, want 2 levels x 2 questions", view)
	}

	var summary *AttemptSummary
	for i := 0; i < 4; i++ {
		option := f.pickOption(t, view, true)
		outcome, err := f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, option)
		if err != nil {
			t.Fatalf("Answer %d: %v", i, err)
		}
		if outcome.Summary != nil {
			summary = outcome.Summary
			break
		}
		view = outcome.View
	}

	if summary == nil {
		t.Fatal("answering every question must finish the sitting")
	}
	if summary.TotalScore != 4 || summary.TotalQuestions != 4 {
		t.Errorf("summary = %d/%d, want 4/4", summary.TotalScore, summary.TotalQuestions)
	}
	if summary.Percentage != 100 {
		t.Errorf("percentage = %v, want 100", summary.Percentage)
	}
	if !summary.CertificateOffered {
		t.Error("100%% against an 80%% threshold must offer the certificate")
	}
	if len(summary.Levels) != 2 {
		t.Fatalf("levels in summary = %d, want 2", len(summary.Levels))
	}

	// One result row per level, tied together by the attempt id.
	results, err := f.svc.Results(ctx, summary.AttemptID, identity)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.GuestName != "Olena" || r.UserID != 0 {
			t.Errorf("guest identity lost: %+v", r)
		}
		if r.Score != 2 || r.TotalQuestions != 2 {
			t.Errorf("level result = %d/%d, want 2/2", r.Score, r.TotalQuestions)
		}
	}
}

func TestQuickTestCapturesLevelDuration(t *testing.T) {
	f := newQuickTestFixture(t)
	test := f.seedTest(t, 1, 2, true)
	ctx := context.Background()
	identity := RunnerIdentity{UserID: 5}

	// Fixed clock: the level takes exactly 42 seconds of "wall" time.
	current := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return current }

	view, err := f.svc.Start(ctx, identity, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	outcome, err := f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, f.pickOption(t, view, true))
	if err != nil {
		t.Fatalf("first answer: %v", err)
	}
	view = outcome.View

	current = current.Add(42 * time.Second)
	outcome, err = f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, f.pickOption(t, view, true))
	if err != nil {
		t.Fatalf("final answer: %v", err)
	}
	if outcome.Summary == nil {
		t.Fatal("final answer must submit the sitting")
	}
	if got := outcome.Summary.Levels[0].TimeSpentSeconds; got != 42 {
		t.Errorf("summary duration = %d, want 42", got)
	}

	results, err := f.svc.Results(ctx, outcome.Summary.AttemptID, identity)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if got := results[0].TimeSpentSeconds; got != 42 {
		t.Errorf("persisted duration = %d, want 42", got)
	}
	if got := results[0].CompletedAt.Sub(results[0].StartedAt); got != 42*time.Second {
		t.Errorf("completedAt-startedAt = %v, want 42s", got)
	}
}

func TestQuickTestSkipWrapsAround(t *testing.T) {
	f := newQuickTestFixture(t)
	test := f.seedTest(t, 1, 3, true)
	ctx := context.Background()
	identity := RunnerIdentity{UserID: 5}

	view, err := f.svc.Start(ctx, identity, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Skip twice: 0 -> 1 -> 2.
	view, err = f.svc.Skip(ctx, view.AttemptID, identity)
	if err != nil {
		t.Fatalf("first skip: %v", err)
	}
	if view.QuestionIndex != 1 {
		t.Fatalf("index after first skip = %d, want 1", view.QuestionIndex)
	}
	view, err = f.svc.Skip(ctx, view.AttemptID, identity)
	if err != nil {
		t.Fatalf("second skip: %v", err)
	}
	if view.QuestionIndex != 2 {
		t.Fatalf("index after second skip = %d, want 2", view.QuestionIndex)
	}

	// Third skip wraps back to the first skipped question.
	view, err = f.svc.Skip(ctx, view.AttemptID, identity)
	if err != nil {
		t.Fatalf("wrap skip: %v", err)
	}
	if view.QuestionIndex != 0 {
		t.Fatalf("index after wrap = %d, want 0", view.QuestionIndex)
	}

	// Answer two of three; the last open question cannot be skipped.
	for i := 0; i < 2; i++ {
		outcome, err := f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, f.pickOption(t, view, false))
		if err != nil {
			t.Fatalf("Answer: %v", err)
		}
		view = outcome.View
	}
	if _, err := f.svc.Skip(ctx, view.AttemptID, identity); !errors.Is(err, util.ErrNothingToSkip) {
		t.Errorf("skip on last open question = %v, want ErrNothingToSkip", err)
	}
}

func TestQuickTestRejectsEmptySelectionAndUnpublished(t *testing.T) {
	f := newQuickTestFixture(t)
	ctx := context.Background()
	identity := RunnerIdentity{UserID: 5}

	unpublished := f.seedTest(t, 1, 2, false)
	if _, err := f.svc.Start(ctx, identity, unpublished.ShareCode); !errors.Is(err, util.ErrTestNotPublished) {
		t.Errorf("Start(unpublished) = %v, want ErrTestNotPublished", err)
	}
	if _, err := f.svc.Start(ctx, identity, "no-such-code"); !errors.Is(err, util.ErrQuickTestNotFound) {
		t.Errorf("Start(unknown) = %v, want ErrQuickTestNotFound", err)
	}

	published := f.seedTest(t, 1, 2, true)
	view, err := f.svc.Start(ctx, identity, published.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, ""); !errors.Is(err, util.ErrNoOptionSelected) {
		t.Errorf("Answer(no option) = %v, want ErrNoOptionSelected", err)
	}
}

func TestQuickTestSessionOwnership(t *testing.T) {
	f := newQuickTestFixture(t)
	test := f.seedTest(t, 1, 2, true)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, RunnerIdentity{UserID: 5}, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = f.svc.Current(ctx, view.AttemptID, RunnerIdentity{UserID: 6})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("foreign session read = %v, want ErrPermissionDenied", err)
	}
}

func TestQuickTestGuestSessionsAreIsolatedByName(t *testing.T) {
	f := newQuickTestFixture(t)
	test := f.seedTest(t, 1, 2, true)
	ctx := context.Background()
	alice := RunnerIdentity{GuestName: "alice"}
	mallory := RunnerIdentity{GuestName: "mallory"}

	view, err := f.svc.Start(ctx, alice, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := f.svc.Current(ctx, view.AttemptID, mallory); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("guest reading another guest's session = %v, want ErrPermissionDenied", err)
	}
	if _, err := f.svc.Answer(ctx, view.AttemptID, mallory, view.Question.ID, "x"); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("guest answering in another guest's session = %v, want ErrPermissionDenied", err)
	}
	if _, err := f.svc.Results(ctx, view.AttemptID, mallory); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("guest reading another guest's results = %v, want ErrPermissionDenied", err)
	}

	// The owner is unaffected.
	if _, err := f.svc.Current(ctx, view.AttemptID, alice); err != nil {
		t.Errorf("owner read: %v", err)
	}
}

func TestQuickTestCountdownGatesAnswers(t *testing.T) {
	f := newQuickTestFixture(t)
	cfg := f.svc.Cfg
	cfg.Quiz.StartCountdownSeconds = 60

	test := f.seedTest(t, 1, 2, true)
	ctx := context.Background()
	identity := RunnerIdentity{UserID: 5}

	view, err := f.svc.Start(ctx, identity, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if view.CountdownRemaining == 0 {
		t.Error("countdown should be reported while pending")
	}

	if _, err := f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, "x"); !errors.Is(err, util.ErrSessionNotReady) {
		t.Errorf("Answer during countdown = %v, want ErrSessionNotReady", err)
	}
}

func TestQuickTestPreview(t *testing.T) {
	f := newQuickTestFixture(t)
	test := f.seedTest(t, 2, 2, true)
	ctx := context.Background()

	// Anonymous callers get the outline and nothing personal.
	preview, err := f.svc.Preview(test.ShareCode, 0)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if preview.LevelCount != 2 || preview.QuestionCount != 4 {
		t.Errorf("preview = %d levels / %d questions, want 2/4", preview.LevelCount, preview.QuestionCount)
	}
	if preview.BestPerLevel != nil {
		t.Error("anonymous preview must not carry personal bests")
	}

	// A signed-in caller who finished a sitting sees their bests.
	identity := RunnerIdentity{UserID: 7}
	view, err := f.svc.Start(ctx, identity, test.ShareCode)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 4; i++ {
		outcome, err := f.svc.Answer(ctx, view.AttemptID, identity, view.Question.ID, f.pickOption(t, view, true))
		if err != nil {
			t.Fatalf("Answer %d: %v", i, err)
		}
		if outcome.Summary != nil {
			break
		}
		view = outcome.View
	}

	preview, err = f.svc.Preview(test.ShareCode, 7)
	if err != nil {
		t.Fatalf("Preview (signed in): %v", err)
	}
	if len(preview.BestPerLevel) != 2 {
		t.Errorf("bestPerLevel = %d entries, want 2", len(preview.BestPerLevel))
	}

	unpublished := f.seedTest(t, 1, 1, false)
	if _, err := f.svc.Preview(unpublished.ShareCode, 0); !errors.Is(err, util.ErrTestNotPublished) {
		t.Errorf("Preview(unpublished) = %v, want ErrTestNotPublished", err)
	}
}

func TestValidateQuickTestInput(t *testing.T) {
	valid := &QuickTestInput{
		Title: "T",
		Levels: []QuickTestLevelInput{{
			Questions: []QuickTestQuestionInput{{
				Text: "q",
				Options: []QuickTestOptionInput{
					{Text: "a", IsCorrect: true},
					{Text: "b"},
				},
			}},
		}},
	}
	if err := ValidateQuickTestInput(valid); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}

	twoCorrect := &QuickTestInput{
		Title: "T",
		Levels: []QuickTestLevelInput{{
			Questions: []QuickTestQuestionInput{{
				Text: "q",
				Options: []QuickTestOptionInput{
					{Text: "a", IsCorrect: true},
					{Text: "b", IsCorrect: true},
				},
			}},
		}},
	}
	if err := ValidateQuickTestInput(twoCorrect); err == nil {
		t.Error("two correct options must be rejected")
	}

	noLevels := &QuickTestInput{Title: "T"}
	if err := ValidateQuickTestInput(noLevels); err == nil {
		t.Error("a test without levels must be rejected")
	}
}

func TestImportJSONRejectsMalformed(t *testing.T) {
	f := newQuickTestFixture(t)

	if _, err := f.svc.ImportJSON([]byte("{not json")); err == nil {
		t.Error("malformed JSON must be rejected")
	}
	if _, err := f.svc.ImportJSON([]byte(`{"levels": []}`)); err == nil {
		t.Error("import without a title must be rejected")
	}

	doc := []byte(`{
		"title": "Imported",
		"isPublished": true,
		"levels": [{
			"title": "L1",
			"questions": [{
				"text": "q",
				"options": [
					{"text": "a", "isCorrect": true},
					{"text": "b"}
				]
			}]
		}]
	}`)
	test, err := f.svc.ImportJSON(doc)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if test.Title != "Imported" || test.ShareCode == "" {
		t.Errorf("imported test = %+v", test)
	}
}
