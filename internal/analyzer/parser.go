package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Parties struct {
	Party1 string `json:"party_1"`
	Party2 string `json:"party_2"`
}

type KeyTerms struct {
	PaymentTerms       string `json:"payment_terms"`
	Duration           string `json:"duration"`
	TerminationClauses string `json:"termination_clauses"`
	Deliverables       string `json:"deliverables"`
	GoverningLaw       string `json:"governing_law"`
}

type Dates struct {
	ExecutionDate   string `json:"execution_date"`
	EffectiveDate   string `json:"effective_date"`
	ExpirationDate  string `json:"expiration_date"`
	TerminationDate string `json:"termination_date"`
}

type RiskAssessment struct {
	OverallRiskLevel string   `json:"overall_risk_level"`
	RiskFactors      []string `json:"risk_factors"`
	RedFlags         []string `json:"red_flags"`
	MissingClauses   []string `json:"missing_clauses"`
	// 分项分数单独解析，缺失或非数字时按默认值处理
	CategoryScores json.RawMessage `json:"category_scores,omitempty"`
}

type Recommendations struct {
	SuggestedChanges  []string `json:"suggested_changes"`
	NegotiationPoints []string `json:"negotiation_points"`
	PriorityActions   []string `json:"priority_actions"`
}

// Result 模型返回的结构化分析结果
type Result struct {
	ContractType          string          `json:"contract_type"`
	Parties               Parties         `json:"parties"`
	KeyTerms              KeyTerms        `json:"key_terms"`
	KeyTermsSummary       string          `json:"plain_english_key_terms_summary,omitempty"`
	Dates                 *Dates          `json:"dates,omitempty"`
	RiskAssessment        RiskAssessment  `json:"risk_assessment"`
	RiskGuidance          string          `json:"risk_guidance,omitempty"`
	RedFlagGuidance       string          `json:"red_flag_guidance,omitempty"`
	MissingClauseGuidance string          `json:"missing_clause_guidance,omitempty"`
	Recommendations       Recommendations `json:"recommendations"`
	PlainEnglishSummary   string          `json:"plain_english_summary"`
}

var requiredKeys = []string{
	"contract_type",
	"parties",
	"key_terms",
	"risk_assessment",
	"recommendations",
	"plain_english_summary",
}

// ParseResponse 严格解析模型输出：必须是单个 JSON 对象且包含全部必填字段，不做修复
func ParseResponse(content string) (*Result, error) {
	data := []byte(strings.TrimSpace(content))
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrMalformedResponse)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for _, key := range requiredKeys {
		raw, ok := top[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: missing required field %q", ErrMalformedResponse, key)
		}
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}

var dateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// ParseDate 解析模型返回的日期，无法识别时返回 nil
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "not specified") {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
