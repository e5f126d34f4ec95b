package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/analyzer"
	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/storage"
	"github.com/qs3c/contract_critic/internal/repository"
)

var (
	ErrContractNotFound   = errors.New("合同不存在")
	ErrContractPermission = errors.New("无权操作此合同")
	ErrInvalidFileType    = errors.New("不支持的文件类型，仅支持 PDF、DOCX、DOC、TXT")
	ErrFileTooLarge       = errors.New("文件过大")
	ErrEmptyFile          = errors.New("文件为空")
)

const recentContractsLimit = 5

type ContractService struct {
	contractRepo *repository.ContractRepository
	analysisRepo *repository.AnalysisRepository
	store        storage.Storage
	cfg          *config.Config
}

func NewContractService(
	contractRepo *repository.ContractRepository,
	analysisRepo *repository.AnalysisRepository,
	store storage.Storage,
	cfg *config.Config,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		analysisRepo: analysisRepo,
		store:        store,
		cfg:          cfg,
	}
}

// UploadBodyLimit 上传请求体上限，文件大小上限再留 1MB 给 multipart 头部，0 表示不限制
func (s *ContractService) UploadBodyLimit() int64 {
	if s.cfg.Upload.MaxSize <= 0 {
		return 0
	}
	return s.cfg.Upload.MaxSize + 1<<20
}

// ValidateUpload 校验扩展名和大小，返回小写扩展名
func (s *ContractService) ValidateUpload(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed := false
	for _, e := range s.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(e, ext) {
			allowed = true
			break
		}
	}
	if !allowed || ext == "" {
		return "", ErrInvalidFileType
	}
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if s.cfg.Upload.MaxSize > 0 && size > s.cfg.Upload.MaxSize {
		return "", fmt.Errorf("%w: 最大 %d MB", ErrFileTooLarge, s.cfg.Upload.MaxSize/(1024*1024))
	}
	return ext, nil
}

// Upload 保存合同文件并创建记录
func (s *ContractService) Upload(ctx context.Context, userID int64, filename string, size int64, file io.Reader) (*dto.ContractItem, error) {
	ext, err := s.ValidateUpload(filename, size)
	if err != nil {
		return nil, err
	}

	storedName := uuid.NewString() + ext
	key := fmt.Sprintf("contracts/%d/%s", userID, storedName)
	contentType := storage.ContentType(ext)

	if err := s.store.Save(ctx, key, file, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store contract file: %w", err)
	}

	contract := &model.Contract{
		UserID:           userID,
		Filename:         storedName,
		OriginalFilename: filepath.Base(filename),
		StorageKey:       key,
		FileSize:         size,
		MimeType:         contentType,
		Status:           model.ContractStatusUploaded,
	}
	if err := s.contractRepo.Create(contract); err != nil {
		// 记录未创建，文件不再保留
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.LogError("service", "Upload", key, delErr)
		}
		return nil, err
	}

	return buildContractItem(contract, 0), nil
}

// List 获取用户的合同列表
func (s *ContractService) List(userID int64, req *dto.ContractListRequest) ([]*dto.ContractItem, int64, error) {
	contracts, total, err := s.contractRepo.ListByUserID(userID, req.Page, req.PageSize, req.Status)
	if err != nil {
		return nil, 0, err
	}

	items, err := s.buildItems(contracts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get 获取合同详情，附带最近一次分析
func (s *ContractService) Get(userID, contractID int64) (*dto.ContractDetail, error) {
	contract, err := s.GetOwned(userID, contractID)
	if err != nil {
		return nil, err
	}

	counts, err := s.analysisRepo.CountByContractIDs([]int64{contract.ID})
	if err != nil {
		return nil, err
	}

	detail := &dto.ContractDetail{ContractItem: *buildContractItem(contract, counts[contract.ID])}

	latest, err := s.analysisRepo.GetLatestByContractID(contract.ID)
	switch {
	case err == nil:
		detail.LatestAnalysis = buildAnalysisSummary(latest)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return detail, nil
}

// Delete 删除合同、关联分析和存储文件
func (s *ContractService) Delete(ctx context.Context, userID, contractID int64) error {
	contract, err := s.GetOwned(userID, contractID)
	if err != nil {
		return err
	}

	if err := s.contractRepo.Delete(contract.ID); err != nil {
		return err
	}

	// 文件删除失败不影响结果，由定时清理兜底
	if err := s.store.Delete(ctx, contract.StorageKey); err != nil {
		logger.LogError("service", "Delete", contract.StorageKey, err)
	}
	return nil
}

// Dashboard 仪表盘统计
func (s *ContractService) Dashboard(userID int64) (*dto.DashboardResponse, error) {
	counts, err := s.contractRepo.CountByStatus(userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	latest, err := s.analysisRepo.LatestForAnalyzedContracts(userID)
	if err != nil {
		return nil, err
	}
	distribution := map[string]int64{
		analyzer.RiskLevelLow:    0,
		analyzer.RiskLevelMedium: 0,
		analyzer.RiskLevelHigh:   0,
	}
	for _, a := range latest {
		distribution[a.RiskLevel]++
	}

	recent, err := s.contractRepo.RecentByUserID(userID, recentContractsLimit)
	if err != nil {
		return nil, err
	}
	recentItems, err := s.buildItems(recent)
	if err != nil {
		return nil, err
	}

	return &dto.DashboardResponse{
		TotalContracts:    total,
		AnalyzedContracts: counts[model.ContractStatusAnalyzed],
		ProcessingCount:   counts[model.ContractStatusProcessing],
		ErrorCount:        counts[model.ContractStatusError],
		RiskDistribution:  distribution,
		RecentContracts:   recentItems,
	}, nil
}

// GetOwned 获取合同并校验归属
func (s *ContractService) GetOwned(userID, contractID int64) (*model.Contract, error) {
	contract, err := s.contractRepo.GetByID(contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, err
	}

	if contract.UserID != userID {
		return nil, ErrContractPermission
	}
	return contract, nil
}

func (s *ContractService) buildItems(contracts []*model.Contract) ([]*dto.ContractItem, error) {
	ids := make([]int64, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.ID)
	}
	counts, err := s.analysisRepo.CountByContractIDs(ids)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ContractItem, 0, len(contracts))
	for _, c := range contracts {
		items = append(items, buildContractItem(c, counts[c.ID]))
	}
	return items, nil
}

func buildContractItem(c *model.Contract, analysesCount int64) *dto.ContractItem {
	return &dto.ContractItem{
		ID:               c.ID,
		Filename:         c.Filename,
		OriginalFilename: c.OriginalFilename,
		FileSize:         c.FileSize,
		MimeType:         c.MimeType,
		ContractType:     c.ContractType,
		Status:           c.Status,
		ErrorMessage:     c.ErrorMessage,
		ExecutionDate:    formatDate(c.ExecutionDate),
		EffectiveDate:    formatDate(c.EffectiveDate),
		ExpirationDate:   formatDate(c.ExpirationDate),
		TerminationDate:  formatDate(c.TerminationDate),
		AnalysesCount:    analysesCount,
		CreatedAt:        c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.Format(time.RFC3339),
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
