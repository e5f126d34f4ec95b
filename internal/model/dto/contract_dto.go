package dto

// ContractListRequest 合同列表查询参数
type ContractListRequest struct {
	Page     int
	PageSize int
	Status   string
}

// ContractItem 合同信息
type ContractItem struct {
	ID               int64  `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
	ContractType     string `json:"contract_type,omitempty"`
	Status           string `json:"status"`
	ErrorMessage     string `json:"error_message,omitempty"`
	ExecutionDate    string `json:"execution_date,omitempty"`
	EffectiveDate    string `json:"effective_date,omitempty"`
	ExpirationDate   string `json:"expiration_date,omitempty"`
	TerminationDate  string `json:"termination_date,omitempty"`
	AnalysesCount    int64  `json:"analyses_count"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ContractDetail 合同详情，附带最近一次分析
type ContractDetail struct {
	ContractItem
	LatestAnalysis *AnalysisSummary `json:"latest_analysis,omitempty"`
}

// DashboardResponse 仪表盘统计
type DashboardResponse struct {
	TotalContracts    int64            `json:"total_contracts"`
	AnalyzedContracts int64            `json:"analyzed_contracts"`
	ProcessingCount   int64            `json:"processing_contracts"`
	ErrorCount        int64            `json:"error_contracts"`
	RiskDistribution  map[string]int64 `json:"risk_distribution"`
	RecentContracts   []*ContractItem  `json:"recent_contracts"`
}
