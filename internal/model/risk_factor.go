package model

// 风险项类别
const (
	RiskCategoryFactor  = "Risk Factor"
	RiskCategoryRedFlag = "Red Flag"
	RiskCategoryMissing = "Missing Protection"
)

type RiskFactor struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	AnalysisID     int64  `gorm:"index;not null" json:"analysis_id"`
	Category       string `gorm:"size:30" json:"category"`
	Severity       string `gorm:"size:10" json:"severity"`
	Description    string `gorm:"type:text" json:"description"`
	Recommendation string `gorm:"type:text" json:"recommendation"`
}

func (RiskFactor) TableName() string {
	return "risk_factors"
}
