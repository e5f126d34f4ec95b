package analyzer

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/qs3c/contract_critic/internal/model"
)

// 风险等级
const (
	RiskLevelLow    = "Low"
	RiskLevelMedium = "Medium"
	RiskLevelHigh   = "High"
)

// DefaultCategoryScore 缺失、null 或非数字的分项分数
const DefaultCategoryScore = 50.0

type categoryWeight struct {
	Category string
	Weight   decimal.Decimal
}

var categoryWeights = []categoryWeight{
	{"payment", decimal.RequireFromString("0.25")},
	{"liability", decimal.RequireFromString("0.20")},
	{"termination", decimal.RequireFromString("0.15")},
	{"ip", decimal.RequireFromString("0.15")},
	{"compliance", decimal.RequireFromString("0.10")},
	{"clarity", decimal.RequireFromString("0.10")},
	{"enforceability", decimal.RequireFromString("0.05")},
}

// Categories 返回全部分项名称（按权重顺序）
func Categories() []string {
	names := make([]string, len(categoryWeights))
	for i, cw := range categoryWeights {
		names[i] = cw.Category
	}
	return names
}

// CategoryScores 从原始 JSON 中取出每个分项分数，并截断到 [0,100]
func CategoryScores(raw json.RawMessage) map[string]float64 {
	var values map[string]interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &values); err != nil {
			values = nil
		}
	}

	scores := make(map[string]float64, len(categoryWeights))
	for _, cw := range categoryWeights {
		v, ok := values[cw.Category].(float64)
		if !ok {
			scores[cw.Category] = DefaultCategoryScore
			continue
		}
		scores[cw.Category] = clamp(v)
	}
	return scores
}

// WeightedScore 加权求和并四舍五入到两位小数
func WeightedScore(scores map[string]float64) float64 {
	total := decimal.Zero
	for _, cw := range categoryWeights {
		v, ok := scores[cw.Category]
		if !ok {
			v = DefaultCategoryScore
		}
		total = total.Add(decimal.NewFromFloat(clamp(v)).Mul(cw.Weight))
	}
	f, _ := total.Round(2).Float64()
	return f
}

// RiskLevel ≤30 Low，≤70 Medium，其余 High
func RiskLevel(score float64) string {
	switch {
	case score <= 30:
		return RiskLevelLow
	case score <= 70:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// Score 计算结果的总分、等级和实际使用的分项分数
func Score(r *Result) (float64, string, map[string]float64) {
	scores := CategoryScores(r.RiskAssessment.CategoryScores)
	overall := WeightedScore(scores)
	return overall, RiskLevel(overall), scores
}

// ExtractRiskFactors 把风险项、红旗和缺失条款展开为单独的记录
func ExtractRiskFactors(r *Result) []model.RiskFactor {
	ra := r.RiskAssessment
	factors := make([]model.RiskFactor, 0, len(ra.RiskFactors)+len(ra.RedFlags)+len(ra.MissingClauses))

	for _, f := range ra.RiskFactors {
		factors = append(factors, model.RiskFactor{
			Category:       model.RiskCategoryFactor,
			Severity:       "medium",
			Description:    f,
			Recommendation: "Review and consider mitigation strategies",
		})
	}
	for _, f := range ra.RedFlags {
		factors = append(factors, model.RiskFactor{
			Category:       model.RiskCategoryRedFlag,
			Severity:       "high",
			Description:    f,
			Recommendation: "Immediate attention required - consider legal consultation",
		})
	}
	for _, f := range ra.MissingClauses {
		factors = append(factors, model.RiskFactor{
			Category:       model.RiskCategoryMissing,
			Severity:       "medium",
			Description:    "Missing clause: " + f,
			Recommendation: "Consider adding this clause for better protection",
		})
	}
	return factors
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
