package service

import (
	"accounting_academy_backend/internal/config"
	"accounting_academy_backend/internal/model"
	"accounting_academy_backend/internal/repository"
	"accounting_academy_backend/internal/util"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm"
)

type StageService struct {
	StageRepo    *repository.StageRepository
	ProgressRepo *repository.ProgressRepository
	Storage      *StorageService
	Cfg          *config.Config
	DB           *gorm.DB
}

func NewStageService(stageRepo *repository.StageRepository, progressRepo *repository.ProgressRepository, storage *StorageService, cfg *config.Config, db *gorm.DB) *StageService {
	return &StageService{
		StageRepo:    stageRepo,
		ProgressRepo: progressRepo,
		Storage:      storage,
		Cfg:          cfg,
		DB:           db,
	}
}

// StageView is a stage decorated with the caller's computed lock and
// completion state.
type StageView struct {
	model.TestStage
	Unlocked       bool `json:"unlocked"`
	Completed      bool `json:"completed"`
	VideoCompleted bool `json:"videoCompleted"`
	CorrectCount   int  `json:"correctCount"`
	WrongCount     int  `json:"wrongCount"`
}

// ListForUser returns all stages with the sequential-unlock rule applied:
// a stage is unlocked iff it is the first by stage number or the previous
// stage is completed, and it is not admin-locked. Recomputed on every read.
func (s *StageService) ListForUser(userID uint) ([]StageView, error) {
	stages, err := s.StageRepo.ListOrdered()
	if err != nil {
		return nil, err
	}

	perStage := map[uint]model.StageProgress{}
	if userID != 0 {
		list, err := s.ProgressRepo.ListStageProgress(userID)
		if err != nil {
			return nil, err
		}
		for _, sp := range list {
			perStage[sp.StageID] = sp
		}
	}

	views := make([]StageView, 0, len(stages))
	prevCompleted := true // first stage has no predecessor
	for _, stage := range stages {
		sp := perStage[stage.ID]
		view := StageView{
			TestStage:      stage,
			Unlocked:       prevCompleted && !stage.IsLocked,
			Completed:      sp.Completed,
			VideoCompleted: sp.VideoCompleted,
			CorrectCount:   sp.CorrectCount,
			WrongCount:     sp.WrongCount,
		}
		views = append(views, view)
		prevCompleted = sp.Completed
	}
	return views, nil
}

// IsUnlocked recomputes the unlock rule for one stage.
func (s *StageService) IsUnlocked(userID uint, stageID uint) (bool, error) {
	views, err := s.ListForUser(userID)
	if err != nil {
		return false, err
	}
	for _, v := range views {
		if v.ID == stageID {
			return v.Unlocked, nil
		}
	}
	return false, util.ErrStageNotFound
}

// GetForQuiz loads a stage with ordered questions and options, enforcing the
// unlock rule for the caller. Correct flags stay server-side; the controller
// strips them.
func (s *StageService) GetForQuiz(userID, stageID uint) (*model.TestStage, error) {
	unlocked, err := s.IsUnlocked(userID, stageID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, util.ErrStageLocked
	}
	return s.StageRepo.FindByIDWithQuestions(stageID)
}

type StageQuestionInput struct {
	Text    string   `json:"text" binding:"required"`
	Options []string `json:"options" binding:"required,min=2"`
	// Index into Options of the single correct answer.
	CorrectIndex int `json:"correctIndex"`
}

type StageInput struct {
	StageNumber          int     `json:"stageNumber" binding:"required,min=1"`
	Title                string  `json:"title" binding:"required"`
	Description          string  `json:"description"`
	IsLocked             bool    `json:"isLocked"`
	VideoRequiredPercent int     `json:"videoRequiredPercent"`
	PassThresholdPercent float64 `json:"passThresholdPercent"`
	Questions            []StageQuestionInput `json:"questions"`
}

func validateQuestions(questions []StageQuestionInput) error {
	for _, q := range questions {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return util.ErrQuestionNoCorrect
		}
	}
	return nil
}

func (s *StageService) CreateStage(input StageInput) (*model.TestStage, error) {
	if err := validateQuestions(input.Questions); err != nil {
		return nil, err
	}

	stage := &model.TestStage{
		StageNumber:          input.StageNumber,
		Title:                input.Title,
		Description:          input.Description,
		IsLocked:             input.IsLocked,
		VideoRequiredPercent: input.VideoRequiredPercent,
		PassThresholdPercent: input.PassThresholdPercent,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(stage).Error; err != nil {
			return err
		}
		return createStageQuestions(tx, stage.ID, input.Questions)
	})
	if err != nil {
		return nil, err
	}
	return stage, nil
}

func createStageQuestions(tx *gorm.DB, stageID uint, questions []StageQuestionInput) error {
	for i, q := range questions {
		question := model.StageQuestion{
			StageID: stageID,
			Text:    q.Text,
			Order:   i,
		}
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for j, text := range q.Options {
			option := model.StageOption{
				QuestionID: question.ID,
				Text:       text,
				IsCorrect:  j == q.CorrectIndex,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// UpdateStage replaces a stage and, when questions are supplied, its whole
// question set in one transaction. The source deleted and recreated
// subcollections with a client-side loop; here a failure rolls everything
// back.
func (s *StageService) UpdateStage(stageID uint, input StageInput) (*model.TestStage, error) {
	if err := validateQuestions(input.Questions); err != nil {
		return nil, err
	}

	stage, err := s.StageRepo.FindByID(stageID)
	if err != nil {
		return nil, err
	}

	stage.StageNumber = input.StageNumber
	stage.Title = input.Title
	stage.Description = input.Description
	stage.IsLocked = input.IsLocked
	stage.VideoRequiredPercent = input.VideoRequiredPercent
	stage.PassThresholdPercent = input.PassThresholdPercent

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(stage).Error; err != nil {
			return err
		}
		if input.Questions == nil {
			return nil
		}
		if err := deleteStageQuestions(tx, stageID); err != nil {
			return err
		}
		return createStageQuestions(tx, stageID, input.Questions)
	})
	if err != nil {
		return nil, err
	}
	return stage, nil
}

func deleteStageQuestions(tx *gorm.DB, stageID uint) error {
	var questionIDs []uint
	if err := tx.Model(&model.StageQuestion{}).
		Where("stage_id = ?", stageID).
		Pluck("id", &questionIDs).Error; err != nil {
		return err
	}
	if len(questionIDs) > 0 {
		if err := tx.Where("question_id IN ?", questionIDs).
			Delete(&model.StageOption{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("stage_id = ?", stageID).Delete(&model.StageQuestion{}).Error
}

func (s *StageService) DeleteStage(stageID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := deleteStageQuestions(tx, stageID); err != nil {
			return err
		}
		return tx.Delete(&model.TestStage{}, stageID).Error
	})
}

// UploadVideo stores a stage video and probes its duration so the required
// watch percentage can be enforced in seconds.
func (s *StageService) UploadVideo(ctx context.Context, stageID uint, header *multipart.FileHeader) (*model.TestStage, error) {
	stage, err := s.StageRepo.FindByID(stageID)
	if err != nil {
		return nil, err
	}

	if !util.IsAllowedVideoFile(header.Filename) {
		return nil, errors.New("unsupported video format")
	}

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	filename := fmt.Sprintf("stages/%d/%d%s", stageID, time.Now().UnixNano(), filepath.Ext(header.Filename))

	// Stage through a temp file so the duration can be probed regardless of
	// the storage backend.
	tmp, err := os.CreateTemp("", "stage-video-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		return nil, err
	}

	duration := 0
	if info, err := util.GetVideoInfo(tmp.Name()); err == nil {
		duration = int(info.Duration)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	url, err := s.Storage.Upload(ctx, filename, tmp, header.Size, util.MimeVideo+filepath.Ext(header.Filename)[1:])
	if err != nil {
		return nil, err
	}

	stage.VideoURL = url
	stage.VideoDurationSeconds = duration
	if err := s.StageRepo.Update(stage); err != nil {
		return nil, err
	}
	return stage, nil
}

// ReportVideoProgress marks the stage video watched once the reported percent
// reaches the stage's requirement.
func (s *StageService) ReportVideoProgress(userID, stageID uint, watchedPercent int) (bool, error) {
	stage, err := s.StageRepo.FindByID(stageID)
	if err != nil {
		return false, err
	}

	if watchedPercent < stage.VideoRequiredPercent {
		return false, nil
	}
	if err := s.ProgressRepo.SetVideoCompleted(userID, stageID); err != nil {
		return false, err
	}
	return true, nil
}

// PassThreshold resolves the effective pass threshold for a stage.
func (s *StageService) PassThreshold(stage *model.TestStage) float64 {
	if stage.PassThresholdPercent > 0 {
		return stage.PassThresholdPercent
	}
	return s.Cfg.Quiz.PassThreshold
}
