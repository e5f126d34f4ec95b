package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
)

type FailureRepository struct {
	db *gorm.DB
}

func NewFailureRepository(db *gorm.DB) *FailureRepository {
	return &FailureRepository{db: db}
}

func (r *FailureRepository) Create(failure *model.AnalysisFailure) error {
	return r.db.Create(failure).Error
}

func (r *FailureRepository) ListByContractID(contractID int64) ([]*model.AnalysisFailure, error) {
	var failures []*model.AnalysisFailure
	err := r.db.Where("contract_id = ?", contractID).Order("id DESC").Find(&failures).Error
	return failures, err
}
