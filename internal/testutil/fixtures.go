package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qs3c/contract_critic/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	user := &model.User{
		Username:          fmt.Sprintf("testuser_%d", n),
		Email:             fmt.Sprintf("test_%d@example.com", n),
		PasswordHash:      "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		SubscriptionLevel: "free",
		DailyQuota:        5,
		QuotaUsedToday:    0,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = hash
	}
}

// WithSubscription 设置订阅级别
func WithSubscription(level string, quota int) func(*model.User) {
	return func(u *model.User) {
		u.SubscriptionLevel = level
		u.DailyQuota = quota
	}
}

// WithQuotaUsed 设置已使用配额
func WithQuotaUsed(used int) func(*model.User) {
	return func(u *model.User) {
		u.QuotaUsedToday = used
	}
}

// TestContract 创建测试合同
func TestContract(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Contract)) *model.Contract {
	t.Helper()

	n := nextSeq()
	contract := &model.Contract{
		UserID:           userID,
		Filename:         fmt.Sprintf("contract_%d.txt", n),
		OriginalFilename: fmt.Sprintf("contract_%d.txt", n),
		StorageKey:       fmt.Sprintf("contracts/%d/contract_%d.txt", userID, n),
		FileSize:         128,
		MimeType:         "text/plain",
		Status:           model.ContractStatusUploaded,
	}

	for _, opt := range opts {
		opt(contract)
	}

	if err := db.Create(contract).Error; err != nil {
		t.Fatalf("Failed to create test contract: %v", err)
	}

	return contract
}

// WithStatus 设置合同状态
func WithStatus(status string) func(*model.Contract) {
	return func(c *model.Contract) {
		c.Status = status
	}
}

// WithStorageKey 设置存储 key
func WithStorageKey(key string) func(*model.Contract) {
	return func(c *model.Contract) {
		c.StorageKey = key
	}
}

// WithOriginalFilename 设置原始文件名
func WithOriginalFilename(name string) func(*model.Contract) {
	return func(c *model.Contract) {
		c.OriginalFilename = name
	}
}

// TestAnalysis 创建测试分析
func TestAnalysis(t *testing.T, db *gorm.DB, contractID int64, opts ...func(*model.Analysis)) *model.Analysis {
	t.Helper()

	analysis := &model.Analysis{
		ContractID:     contractID,
		ModelUsed:      "test-model",
		AnalysisType:   "comprehensive",
		RiskScore:      42.5,
		RiskLevel:      "Medium",
		CategoryScores: datatypes.JSON(`{}`),
		Result:         datatypes.JSON(`{}`),
		TotalTokens:    100,
	}

	for _, opt := range opts {
		opt(analysis)
	}

	if err := db.Omit("RiskFactors", "Contract").Create(analysis).Error; err != nil {
		t.Fatalf("Failed to create test analysis: %v", err)
	}

	return analysis
}

// WithRisk 设置风险评分和等级
func WithRisk(score float64, level string) func(*model.Analysis) {
	return func(a *model.Analysis) {
		a.RiskScore = score
		a.RiskLevel = level
	}
}

// WithTokens 设置 token 总数
func WithTokens(total int) func(*model.Analysis) {
	return func(a *model.Analysis) {
		a.TotalTokens = total
	}
}
