package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(contract *model.Contract) error {
	return r.db.Create(contract).Error
}

func (r *ContractRepository) GetByID(id int64) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.Where("id = ?", id).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.Contract{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus 更新状态，errMsg 为空时清除上次的错误信息
func (r *ContractRepository) UpdateStatus(id int64, status, errMsg string) error {
	return r.UpdateFields(id, map[string]interface{}{
		"status":        status,
		"error_message": errMsg,
	})
}

// Delete 删除合同及其分析、风险项和失败记录
func (r *ContractRepository) Delete(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		analysisIDs := tx.Model(&model.Analysis{}).Select("id").Where("contract_id = ?", id)
		if err := tx.Where("analysis_id IN (?)", analysisIDs).Delete(&model.RiskFactor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", id).Delete(&model.Analysis{}).Error; err != nil {
			return err
		}
		if err := tx.Where("contract_id = ?", id).Delete(&model.AnalysisFailure{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Contract{}, id).Error
	})
}

// ListByUserID 获取用户的合同列表
func (r *ContractRepository) ListByUserID(userID int64, page, pageSize int, status string) ([]*model.Contract, int64, error) {
	var contracts []*model.Contract
	var total int64

	query := r.db.Model(&model.Contract{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&contracts).Error; err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}

// RecentByUserID 最近上传的合同
func (r *ContractRepository) RecentByUserID(userID int64, limit int) ([]*model.Contract, error) {
	var contracts []*model.Contract
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&contracts).Error
	return contracts, err
}

type statusCount struct {
	Status string
	Count  int64
}

// CountByStatus 按状态统计用户的合同数
func (r *ContractRepository) CountByStatus(userID int64) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.Model(&model.Contract{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListStorageKeys 返回全部合同引用的存储 key
func (r *ContractRepository) ListStorageKeys() (map[string]struct{}, error) {
	var keys []string
	if err := r.db.Model(&model.Contract{}).Pluck("storage_key", &keys).Error; err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

// FailStaleProcessing 把更新时间早于 before 仍处于 processing 的合同标记为 error
func (r *ContractRepository) FailStaleProcessing(before time.Time, errMsg string) (int64, error) {
	result := r.db.Model(&model.Contract{}).
		Where("status = ? AND updated_at < ?", model.ContractStatusProcessing, before).
		Updates(map[string]interface{}{
			"status":        model.ContractStatusError,
			"error_message": errMsg,
		})
	return result.RowsAffected, result.Error
}
