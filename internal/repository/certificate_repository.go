package repository

import (
	"accounting_academy_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) FindByUser(userID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("user_id = ?", userID).First(&cert).Error
	return &cert, err
}

func (r *CertificateRepository) FindByNumber(number string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Where("certificate_number = ?", number).First(&cert).Error
	return &cert, err
}

func (r *CertificateRepository) List(page, limit int) ([]model.Certificate, int64, error) {
	var certs []model.Certificate
	var total int64

	if err := r.DB.Model(&model.Certificate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&certs).Error
	return certs, total, err
}
