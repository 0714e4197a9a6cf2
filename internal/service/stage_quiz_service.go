package service

import (
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"accounting_academy_backend/pkg/logger"
	"accounting_academy_backend/pkg/monitoring"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StageQuizService drives one stage's question sequence to completion and
// records the outcome. Totals on the user aggregate always reflect the latest
// attempt per stage: a re-attempt replaces the stage's contribution instead
// of summing across attempts.
type StageQuizService struct {
	StageRepo    *repository.StageRepository
	ProgressRepo *repository.ProgressRepository
	Stages       *StageService
	Certificates *CertificateService
	Notifier     *NotificationService
	Leaderboard  *LeaderboardService
	DB           *gorm.DB
}

func NewStageQuizService(stageRepo *repository.StageRepository, progressRepo *repository.ProgressRepository, stages *StageService, certificates *CertificateService, notifier *NotificationService, leaderboard *LeaderboardService, db *gorm.DB) *StageQuizService {
	return &StageQuizService{
		StageRepo:    stageRepo,
		ProgressRepo: progressRepo,
		Stages:       stages,
		Certificates: certificates,
		Notifier:     notifier,
		Leaderboard:  leaderboard,
		DB:           db,
	}
}

type StageQuizResult struct {
	StageID           uint    `json:"stageId"`
	Correct           int     `json:"correct"`
	Wrong             int     `json:"wrong"`
	Total             int     `json:"total"`
	Percentage        float64 `json:"percentage"`
	Passed            bool    `json:"passed"`
	CertificateIssued bool    `json:"certificateIssued"`
}

// ScoreStageQuiz compares each selected option against the one flagged
// correct. Unanswered questions count as wrong.
func ScoreStageQuiz(questions []model.StageQuestion, answers map[uint]uint) (correct, wrong int) {
	for _, q := range questions {
		selected, answered := answers[q.ID]
		if !answered {
			wrong++
			continue
		}
		matched := false
		for _, o := range q.Options {
			if o.ID == selected && o.IsCorrect {
				matched = true
				break
			}
		}
		if matched {
			correct++
		} else {
			wrong++
		}
	}
	return correct, wrong
}

// Passed applies the boundary-inclusive pass rule.
func Passed(correct, total int, threshold float64) bool {
	if total == 0 {
		return false
	}
	return float64(correct)/float64(total)*100 >= threshold
}

// Submit scores the answers and writes the progress delta in one transaction.
// answers maps question id to the selected option id.
func (s *StageQuizService) Submit(userID, stageID uint, answers map[uint]uint) (*StageQuizResult, error) {
	stage, err := s.Stages.GetForQuiz(userID, stageID)
	if err != nil {
		return nil, err
	}

	correct, wrong := ScoreStageQuiz(stage.Questions, answers)
	total := correct + wrong
	percentage := 0.0
	if total > 0 {
		percentage = float64(correct) / float64(total) * 100
	}
	passed := Passed(correct, total, s.Stages.PassThreshold(stage))

	now := time.Now()
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// The aggregate row must exist before the delta update.
		var progress model.UserProgress
		if err := tx.Where("user_id = ?", userID).First(&progress).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			progress = model.UserProgress{UserID: userID}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		}

		var prev model.StageProgress
		err := tx.Where("user_id = ? AND stage_id = ?", userID, stageID).First(&prev).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		correctDiff := correct - prev.CorrectCount
		wrongDiff := wrong - prev.WrongCount

		if err := tx.Model(&model.UserProgress{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"total_correct": gorm.Expr("total_correct + ?", correctDiff),
				"total_wrong":   gorm.Expr("total_wrong + ?", wrongDiff),
			}).Error; err != nil {
			return err
		}

		if prev.ID == 0 {
			return tx.Create(&model.StageProgress{
				UserID:       userID,
				StageID:      stageID,
				Completed:    passed,
				CorrectCount: correct,
				WrongCount:   wrong,
				LastAttempt:  now,
			}).Error
		}

		// Completion is sticky: a later failed attempt never clears it.
		return tx.Model(&prev).Updates(map[string]interface{}{
			"completed":     prev.Completed || passed,
			"correct_count": correct,
			"wrong_count":   wrong,
			"last_attempt":  now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	result := &StageQuizResult{
		StageID:    stageID,
		Correct:    correct,
		Wrong:      wrong,
		Total:      total,
		Percentage: percentage,
		Passed:     passed,
	}

	if s.Leaderboard != nil {
		if progress, err := s.ProgressRepo.Get(userID); err == nil {
			s.Leaderboard.RecordScore(context.Background(), userID, progress.TotalCorrect)
		}
	}

	if passed {
		monitoring.QuizSubmissions.WithLabelValues("passed").Inc()
		s.Notifier.Notify(userID, model.NotificationStagePassed,
			"Stage passed", stage.Title)

		// Auto-issuance re-reads the fresh aggregate; a duplicate issue is
		// blocked by the unique index, not by this check.
		issued, err := s.Certificates.IssueIfEligible(userID, "auto")
		if err != nil && !errors.Is(err, util.ErrCertificateExists) && !errors.Is(err, util.ErrNotEligible) {
			logger.Log.Error("certificate auto-issue failed", zap.Uint("userId", userID), zap.Error(err))
		}
		result.CertificateIssued = issued
	} else {
		monitoring.QuizSubmissions.WithLabelValues("failed").Inc()
	}

	return result, nil
}
