package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type StageRepository struct {
	DB *gorm.DB
}

func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{DB: db}
}

func (r *StageRepository) Create(stage *model.TestStage) error {
	return r.DB.Create(stage).Error
}

func (r *StageRepository) FindByID(id uint) (*model.TestStage, error) {
	var stage model.TestStage
	err := r.DB.First(&stage, id).Error
	return &stage, err
}

// FindByIDWithQuestions loads a stage with its questions and options, ordered
// for the runner.
func (r *StageRepository) FindByIDWithQuestions(id uint) (*model.TestStage, error) {
	var stage model.TestStage
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_questions.`order` ASC, stage_questions.id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("stage_options.id ASC")
		}).
		First(&stage, id).Error
	return &stage, err
}

// ListOrdered returns all stages sorted by stage number.
func (r *StageRepository) ListOrdered() ([]model.TestStage, error) {
	var stages []model.TestStage
	err := r.DB.Order("stage_number ASC").Find(&stages).Error
	return stages, err
}

func (r *StageRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.TestStage{}).Count(&count).Error
	return count, err
}

func (r *StageRepository) Update(stage *model.TestStage) error {
	return r.DB.Save(stage).Error
}

func (r *StageRepository) CreateQuestion(q *model.StageQuestion) error {
	return r.DB.Create(q).Error
}

func (r *StageRepository) FindQuestion(id uint) (*model.StageQuestion, error) {
	var q model.StageQuestion
	err := r.DB.Preload("Options").First(&q, id).Error
	return &q, err
}
