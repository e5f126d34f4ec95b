package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/analyzer"
	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/repository"
	"github.com/qs3c/contract_critic/internal/worker"
)

var ErrAnalysisNotFound = errors.New("分析记录不存在")

type AnalysisService struct {
	analysisRepo    *repository.AnalysisRepository
	contractService *ContractService
	quotaService    *QuotaService
	processor       *worker.Processor
}

func NewAnalysisService(
	analysisRepo *repository.AnalysisRepository,
	contractService *ContractService,
	quotaService *QuotaService,
	processor *worker.Processor,
) *AnalysisService {
	return &AnalysisService{
		analysisRepo:    analysisRepo,
		contractService: contractService,
		quotaService:    quotaService,
		processor:       processor,
	}
}

// Analyze 同步执行一次合同分析，失败时退还配额
func (s *AnalysisService) Analyze(ctx context.Context, userID, contractID int64, req *dto.AnalyzeRequest) (*dto.AnalysisSummary, error) {
	analysisType := req.AnalysisType
	if analysisType == "" {
		analysisType = analyzer.TypeComprehensive
	}
	if !analyzer.ValidAnalysisType(analysisType) {
		return nil, analyzer.ErrUnknownAnalysisType
	}

	contract, err := s.contractService.GetOwned(userID, contractID)
	if err != nil {
		return nil, err
	}

	consumedAt := time.Now()
	if err := s.quotaService.UseQuota(userID); err != nil {
		return nil, err
	}

	analysis, err := s.processor.Process(ctx, &worker.Task{
		Contract:     contract,
		AnalysisType: analysisType,
		Clause:       req.Clause,
	})
	if err != nil {
		if refundErr := s.quotaService.RefundQuota(userID, consumedAt); refundErr != nil {
			logger.LogError("service", "Analyze", userID, refundErr)
		}
		return nil, err
	}

	return buildAnalysisSummary(analysis), nil
}

// Latest 合同最近一次分析
func (s *AnalysisService) Latest(userID, contractID int64) (*dto.AnalysisDetail, error) {
	if _, err := s.contractService.GetOwned(userID, contractID); err != nil {
		return nil, err
	}

	analysis, err := s.analysisRepo.GetLatestByContractID(contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return buildAnalysisDetail(analysis), nil
}

// History 合同的全部分析，新的在前
func (s *AnalysisService) History(userID, contractID int64) ([]*dto.AnalysisSummary, error) {
	if _, err := s.contractService.GetOwned(userID, contractID); err != nil {
		return nil, err
	}

	analyses, err := s.analysisRepo.ListByContractID(contractID)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.AnalysisSummary, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, buildAnalysisSummary(a))
	}
	return items, nil
}

// Get 获取指定分析
func (s *AnalysisService) Get(userID, contractID, analysisID int64) (*dto.AnalysisDetail, error) {
	if _, err := s.contractService.GetOwned(userID, contractID); err != nil {
		return nil, err
	}

	analysis, err := s.analysisRepo.GetByID(analysisID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	if analysis.ContractID != contractID {
		return nil, ErrAnalysisNotFound
	}
	return buildAnalysisDetail(analysis), nil
}

func buildAnalysisSummary(a *model.Analysis) *dto.AnalysisSummary {
	return &dto.AnalysisSummary{
		ID:               a.ID,
		ContractID:       a.ContractID,
		ModelUsed:        a.ModelUsed,
		AnalysisType:     a.AnalysisType,
		RiskScore:        a.RiskScore,
		RiskLevel:        a.RiskLevel,
		TotalTokens:      a.TotalTokens,
		ProcessingTimeMs: a.ProcessingTimeMs,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
	}
}

func buildAnalysisDetail(a *model.Analysis) *dto.AnalysisDetail {
	detail := &dto.AnalysisDetail{
		AnalysisSummary:  *buildAnalysisSummary(a),
		PromptTokens:     a.PromptTokens,
		CompletionTokens: a.CompletionTokens,
		CategoryScores:   json.RawMessage(a.CategoryScores),
		Result:           json.RawMessage(a.Result),
		RiskFactors:      make([]*dto.RiskFactorItem, 0, len(a.RiskFactors)),
	}
	for _, f := range a.RiskFactors {
		detail.RiskFactors = append(detail.RiskFactors, &dto.RiskFactorItem{
			Category:       f.Category,
			Severity:       f.Severity,
			Description:    f.Description,
			Recommendation: f.Recommendation,
		})
	}
	return detail
}
