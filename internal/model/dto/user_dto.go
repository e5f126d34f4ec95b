package dto

// UserInfo 用户信息（返回给前端）
type UserInfo struct {
	ID                int64      `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	FullName          string     `json:"full_name"`
	Company           string     `json:"company"`
	SubscriptionLevel string     `json:"subscription_level"`
	QuotaInfo         *QuotaInfo `json:"quota_info,omitempty"`
	CreatedAt         string     `json:"created_at,omitempty"`
}

// QuotaInfo 配额信息
type QuotaInfo struct {
	DailyQuota     int    `json:"daily_quota"`
	QuotaUsedToday int    `json:"quota_used_today"`
	QuotaRemaining int    `json:"quota_remaining"`
	QuotaResetAt   string `json:"quota_reset_at,omitempty"`
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	FullName *string `json:"full_name,omitempty" binding:"omitempty,max=100"`
	Company  *string `json:"company,omitempty" binding:"omitempty,max=100"`
}

// UserStats 用户使用统计
type UserStats struct {
	TotalContracts    int64  `json:"total_contracts"`
	AnalyzedContracts int64  `json:"analyzed_contracts"`
	TotalAnalyses     int64  `json:"total_analyses"`
	TotalTokens       int64  `json:"total_tokens"`
	SubscriptionLevel string `json:"subscription_level"`
	MemberSince       string `json:"member_since"`
}
