package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create 在同一事务中写入分析及其风险项，并回写合同字段（contractFields 为空时不更新合同）。
// 合同不存在时返回 gorm.ErrRecordNotFound，任一步失败整体回滚
func (r *AnalysisRepository) Create(analysis *model.Analysis, factors []model.RiskFactor, contractFields map[string]interface{}) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Contract{}).Where("id = ?", analysis.ContractID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Omit("RiskFactors", "Contract").Create(analysis).Error; err != nil {
			return err
		}

		if len(factors) > 0 {
			for i := range factors {
				factors[i].ID = 0
				factors[i].AnalysisID = analysis.ID
			}
			if err := tx.Create(&factors).Error; err != nil {
				return err
			}
		}

		if len(contractFields) > 0 {
			if err := tx.Model(&model.Contract{}).Where("id = ?", analysis.ContractID).Updates(contractFields).Error; err != nil {
				return err
			}
		}

		analysis.RiskFactors = factors
		return nil
	})
}

func (r *AnalysisRepository) GetByID(id int64) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.Preload("RiskFactors").Where("id = ?", id).First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GetLatestByContractID 合同最近一次分析
func (r *AnalysisRepository) GetLatestByContractID(contractID int64) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.Preload("RiskFactors").
		Where("contract_id = ?", contractID).
		Order("id DESC").
		First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ListByContractID 分析历史，新的在前
func (r *AnalysisRepository) ListByContractID(contractID int64) ([]*model.Analysis, error) {
	var analyses []*model.Analysis
	err := r.db.Where("contract_id = ?", contractID).Order("id DESC").Find(&analyses).Error
	return analyses, err
}

type contractCount struct {
	ContractID int64
	Count      int64
}

// CountByContractIDs 每个合同的分析次数
func (r *AnalysisRepository) CountByContractIDs(contractIDs []int64) (map[int64]int64, error) {
	counts := make(map[int64]int64, len(contractIDs))
	if len(contractIDs) == 0 {
		return counts, nil
	}

	var rows []contractCount
	err := r.db.Model(&model.Analysis{}).
		Select("contract_id, COUNT(*) AS count").
		Where("contract_id IN ?", contractIDs).
		Group("contract_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ContractID] = row.Count
	}
	return counts, nil
}

// LatestForAnalyzedContracts 用户每个已分析合同的最新一次分析
func (r *AnalysisRepository) LatestForAnalyzedContracts(userID int64) ([]*model.Analysis, error) {
	latestIDs := r.db.Model(&model.Analysis{}).
		Select("MAX(analyses.id)").
		Joins("JOIN contracts ON contracts.id = analyses.contract_id").
		Where("contracts.user_id = ? AND contracts.status = ?", userID, model.ContractStatusAnalyzed).
		Group("analyses.contract_id")

	var analyses []*model.Analysis
	err := r.db.Where("id IN (?)", latestIDs).Find(&analyses).Error
	return analyses, err
}

// UsageStats 用户的分析次数和 token 消耗
type UsageStats struct {
	AnalysisCount int64
	TotalTokens   int64
}

func (r *AnalysisRepository) UsageByUserID(userID int64) (*UsageStats, error) {
	var stats UsageStats
	err := r.db.Model(&model.Analysis{}).
		Select("COUNT(analyses.id) AS analysis_count, COALESCE(SUM(analyses.total_tokens), 0) AS total_tokens").
		Joins("JOIN contracts ON contracts.id = analyses.contract_id").
		Where("contracts.user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
