package model

import (
	"time"
)

// AnalysisFailure 记录失败的分析尝试，raw_response 用于排查模型返回格式问题
type AnalysisFailure struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	ContractID  int64     `gorm:"index;not null" json:"contract_id"`
	Stage       string    `gorm:"size:20" json:"stage"`
	Kind        string    `gorm:"size:30" json:"kind"`
	Message     string    `gorm:"type:text" json:"message"`
	ModelUsed   string    `gorm:"size:100" json:"model_used,omitempty"`
	RawResponse string    `gorm:"type:longtext" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AnalysisFailure) TableName() string {
	return "analysis_failures"
}
