package model

import (
	"time"

	"gorm.io/datatypes"
)

// Analysis 一次合同分析的结果，创建后不再修改
type Analysis struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	ContractID       int64          `gorm:"index;not null" json:"contract_id"`
	ModelUsed        string         `gorm:"size:100" json:"model_used"`
	AnalysisType     string         `gorm:"size:30" json:"analysis_type"`
	RiskScore        float64        `gorm:"type:decimal(5,2)" json:"risk_score"`
	RiskLevel        string         `gorm:"size:10" json:"risk_level"`
	CategoryScores   datatypes.JSON `json:"category_scores"`
	Result           datatypes.JSON `json:"result"`
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	TotalTokens      int            `json:"total_tokens"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`

	Contract    *Contract    `gorm:"foreignKey:ContractID" json:"-"`
	RiskFactors []RiskFactor `gorm:"foreignKey:AnalysisID" json:"risk_factors,omitempty"`
}

func (Analysis) TableName() string {
	return "analyses"
}
