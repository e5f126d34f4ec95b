package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/qs3c/contract_critic/internal/analyzer"
)

// SampleAnalysisResponse 一份合法的模型输出，加权总分 42.5（Medium）
const SampleAnalysisResponse = `{
  "contract_type": "Service Agreement",
  "parties": {"party_1": "Acme LLC (Client)", "party_2": "Jane Doe (Contractor)"},
  "key_terms": {
    "payment_terms": "$5,000 net 30",
    "duration": "6 months",
    "termination_clauses": "14 days notice",
    "deliverables": "Website",
    "governing_law": "California"
  },
  "dates": {"execution_date": "January 5, 2024", "effective_date": "January 5, 2024", "expiration_date": "Not specified", "termination_date": ""},
  "risk_assessment": {
    "overall_risk_level": "Medium",
    "risk_factors": ["Late payment penalties are absent"],
    "red_flags": ["Unlimited liability for contractor"],
    "missing_clauses": ["Limitation of liability"],
    "category_scores": {"payment": 40, "liability": 80, "termination": 30, "ip": 20, "compliance": 10, "clarity": 50, "enforceability": 60}
  },
  "recommendations": {
    "suggested_changes": ["Cap liability"],
    "negotiation_points": ["Payment schedule"],
    "priority_actions": ["Consult a lawyer"]
  },
  "plain_english_summary": "A standard services contract with some liability exposure."
}`

// SampleContractText 用于上传测试的纯文本合同
const SampleContractText = `SERVICE AGREEMENT

1. Services
The Contractor shall build a website for the Client.

2. Payment
The Client shall pay $5,000 within 30 days of invoice.

3. Termination
Either party may terminate with 14 days written notice.
`

// FakeCompleter 可编程的模型客户端
type FakeCompleter struct {
	mu      sync.Mutex
	Content string
	Err     error
	Model   string
	Prompts []string
}

func (f *FakeCompleter) SelectModel(textLength int, analysisType string) string {
	if f.Model != "" {
		return f.Model
	}
	return "fake/model"
}

func (f *FakeCompleter) Complete(ctx context.Context, model, prompt string) (*analyzer.Completion, error) {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	return &analyzer.Completion{
		Content:          f.Content,
		Model:            model,
		PromptTokens:     120,
		CompletionTokens: 80,
		TotalTokens:      200,
		Duration:         10 * time.Millisecond,
	}, nil
}

// Calls 已发起的调用次数
func (f *FakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}
