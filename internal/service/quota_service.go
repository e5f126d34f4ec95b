package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/config"
	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/repository"
)

var ErrQuotaExceeded = errors.New("今日配额已用完")

type QuotaService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
}

func NewQuotaService(userRepo *repository.UserRepository, cfg *config.Config) *QuotaService {
	return &QuotaService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// nextQuotaReset 下一个 UTC 零点
func nextQuotaReset(now time.Time) time.Time {
	return now.UTC().Add(24 * time.Hour).Truncate(24 * time.Hour)
}

func dailyQuotaFor(cfg *config.Config, level string) int {
	if l, ok := cfg.Subscription.Levels[level]; ok {
		return l.DailyQuota
	}
	return cfg.Subscription.Levels["free"].DailyQuota
}

// CheckQuota 检查配额
func (s *QuotaService) CheckQuota(userID int64) (bool, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return false, err
	}
	return user.QuotaUsedToday < user.DailyQuota, nil
}

// UseQuota 占用一次配额
func (s *QuotaService) UseQuota(userID int64) error {
	if _, err := s.loadUser(userID); err != nil {
		return err
	}

	ok, err := s.userRepo.ConsumeQuota(userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrQuotaExceeded
	}
	return nil
}

// RefundQuota 退还 consumedAt 时占用的配额；期间已跨过 UTC 零点重置时不退还，
// 避免扣减新一天的用量
func (s *QuotaService) RefundQuota(userID int64, consumedAt time.Time) error {
	if !time.Now().Before(nextQuotaReset(consumedAt)) {
		return nil
	}
	return s.userRepo.RefundQuota(userID)
}

// ResetAllQuotas 重置所有用户配额
func (s *QuotaService) ResetAllQuotas() error {
	return s.userRepo.ResetAllQuotas(nextQuotaReset(time.Now()))
}

// GetQuotaInfo 获取用户配额信息
func (s *QuotaService) GetQuotaInfo(userID int64) (*dto.QuotaInfo, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}
	return buildQuotaInfo(user), nil
}

// loadUser 读取用户，到达重置时间时先重置配额
func (s *QuotaService) loadUser(userID int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now()
	if user.QuotaResetAt != nil && now.After(*user.QuotaResetAt) {
		next := nextQuotaReset(now)
		if err := s.userRepo.ResetQuota(userID, next); err != nil {
			return nil, err
		}
		user.QuotaUsedToday = 0
		user.QuotaResetAt = &next
	}

	return user, nil
}

func buildQuotaInfo(user *model.User) *dto.QuotaInfo {
	remaining := user.DailyQuota - user.QuotaUsedToday
	if remaining < 0 {
		remaining = 0
	}

	info := &dto.QuotaInfo{
		DailyQuota:     user.DailyQuota,
		QuotaUsedToday: user.QuotaUsedToday,
		QuotaRemaining: remaining,
	}
	if user.QuotaResetAt != nil {
		info.QuotaResetAt = user.QuotaResetAt.Format(time.RFC3339)
	}
	return info
}
