package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/repository"
)

type UserService struct {
	userRepo     *repository.UserRepository
	contractRepo *repository.ContractRepository
	analysisRepo *repository.AnalysisRepository
}

func NewUserService(
	userRepo *repository.UserRepository,
	contractRepo *repository.ContractRepository,
	analysisRepo *repository.AnalysisRepository,
) *UserService {
	return &UserService{
		userRepo:     userRepo,
		contractRepo: contractRepo,
		analysisRepo: analysisRepo,
	}
}

// GetProfile 获取用户详情
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	return buildUserInfoWithQuota(user), nil
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	// 检查用户名是否已被占用
	if req.Username != nil && *req.Username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameExists
		}
		user.Username = *req.Username
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Company != nil {
		user.Company = *req.Company
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	return buildUserInfoWithQuota(user), nil
}

// GetStats 用户使用统计
func (s *UserService) GetStats(userID int64) (*dto.UserStats, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.contractRepo.CountByStatus(userID)
	if err != nil {
		return nil, err
	}
	usage, err := s.analysisRepo.UsageByUserID(userID)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	return &dto.UserStats{
		TotalContracts:    total,
		AnalyzedContracts: counts[model.ContractStatusAnalyzed],
		TotalAnalyses:     usage.AnalysisCount,
		TotalTokens:       usage.TotalTokens,
		SubscriptionLevel: user.SubscriptionLevel,
		MemberSince:       user.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *UserService) getUser(userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func buildUserInfoWithQuota(user *model.User) *dto.UserInfo {
	info := buildUserInfo(user)
	info.QuotaInfo = buildQuotaInfo(user)
	return info
}
