package dto

import "encoding/json"

// AnalyzeRequest 发起分析请求
type AnalyzeRequest struct {
	AnalysisType string `json:"analysis_type,omitempty"`
	Clause       string `json:"clause,omitempty" binding:"omitempty,max=200"`
}

// AnalysisSummary 分析概要（列表与分析接口返回）
type AnalysisSummary struct {
	ID               int64   `json:"id"`
	ContractID       int64   `json:"contract_id"`
	ModelUsed        string  `json:"model_used"`
	AnalysisType     string  `json:"analysis_type"`
	RiskScore        float64 `json:"risk_score"`
	RiskLevel        string  `json:"risk_level"`
	TotalTokens      int     `json:"total_tokens"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	CreatedAt        string  `json:"created_at"`
}

// AnalysisDetail 分析详情
type AnalysisDetail struct {
	AnalysisSummary
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	CategoryScores   json.RawMessage   `json:"category_scores"`
	Result           json.RawMessage   `json:"result"`
	RiskFactors      []*RiskFactorItem `json:"risk_factors"`
}

// RiskFactorItem 风险项
type RiskFactorItem struct {
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

// AnalysisFailureInfo 分析失败时返回给前端的信息
type AnalysisFailureInfo struct {
	ContractID int64  `json:"contract_id"`
	Stage      string `json:"stage"`
	Kind       string `json:"kind"`
}
