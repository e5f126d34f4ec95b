package analyzer

import (
	"fmt"
	"strings"
)

// 分析类型
const (
	TypeComprehensive = "comprehensive"
	TypeQuickSummary  = "quick_summary"
)

// SystemPrompt 每次请求的 system 消息
const SystemPrompt = "You are an expert legal analyst specializing in contract review for small businesses, freelancers and individuals. Provide thorough, accurate analysis with practical recommendations."

const (
	textPlaceholder   = "{{CONTRACT_TEXT}}"
	clausePlaceholder = "{{CLAUSE}}"
)

const responseSchema = `{
  "contract_type": "string - type of contract (e.g., Service Agreement, NDA, Employment Contract)",
  "parties": {
    "party_1": "string - first party name and role",
    "party_2": "string - second party name and role"
  },
  "key_terms": {
    "payment_terms": "string - payment schedule and amounts",
    "duration": "string - contract duration or term",
    "termination_clauses": "string - how the contract can be terminated",
    "deliverables": "string - what each party must deliver",
    "governing_law": "string - applicable jurisdiction and laws"
  },
  "plain_english_key_terms_summary": "string - 1-2 short paragraph summary in simple language explaining the contract's key terms",
  "dates": {
    "execution_date": "string - date contract was signed, e.g. October 3, 1997 - no additional text",
    "effective_date": "string - contract effective date - no additional text",
    "expiration_date": "string - contract expiration date - no additional text",
    "termination_date": "string - contract termination date if applicable - no additional text"
  },
  "risk_assessment": {
    "overall_risk_level": "string - Low/Medium/High",
    "risk_factors": ["array of specific risk factors identified"],
    "red_flags": ["array of concerning clauses or missing protections"],
    "missing_clauses": ["array of important clauses that should be added"],
    "category_scores": {
      "payment": "number 0-100 - risk from payment terms",
      "liability": "number 0-100 - risk from liability and indemnification",
      "termination": "number 0-100 - risk from termination terms",
      "ip": "number 0-100 - intellectual property risk",
      "compliance": "number 0-100 - regulatory and compliance risk",
      "clarity": "number 0-100 - risk from vague or ambiguous wording",
      "enforceability": "number 0-100 - risk that terms are unenforceable"
    }
  },
  "risk_guidance": "string - 1 or 2 sentences on how to address the risk factors",
  "red_flag_guidance": "string - 1 or 2 sentences on how to address the red flags",
  "missing_clause_guidance": "string - 1 or 2 sentences on how to address the missing clauses",
  "recommendations": {
    "suggested_changes": ["array of recommended modifications"],
    "negotiation_points": ["array of terms that should be negotiated"],
    "priority_actions": ["array of immediate actions to take"]
  },
  "plain_english_summary": "string - summary in simple language of the contract's main points, risks and recommendations"
}`

const extractionRules = `IMPORTANT: Only extract information that is explicitly present in the contract text. If a field is not present, return "Not specified" or null. Do not infer, guess or make up any information.
When extracting dates, return only the date itself (for example "October 2, 1998", not "October 2, 1998 (Termination Date)").
Respond ONLY with valid JSON. Do not include any extra text, comments or markdown.`

var comprehensiveTemplate = `Analyze the following contract and provide a comprehensive assessment for small businesses, freelancers and individuals.

When assessing risk, only assign a higher risk level if the contract contains a high quantity of explicit, significant red flags. If the contract is standard or lacks clear issues, use a lower risk level.

CONTRACT TEXT:
` + textPlaceholder + `

Provide your analysis in the following JSON structure:

` + responseSchema + `

Focus on practical concerns: financial risks, unclear obligations and missing protections.

` + extractionRules

var quickSummaryTemplate = `Give a short, high-level review of the following contract. Keep every string field to one or two sentences and list at most three items in each array.

CONTRACT TEXT:
` + textPlaceholder + `

Provide your review in the following JSON structure:

` + responseSchema + `

` + extractionRules

var clauseTemplate = `Review the following contract with a focus on the "` + clausePlaceholder + `" clause. Analyze that clause in detail (what it requires, who it favours, and how it could be improved) and still fill in every field of the structure below for the contract as a whole.

CONTRACT TEXT:
` + textPlaceholder + `

Provide your analysis in the following JSON structure:

` + responseSchema + `

` + extractionRules

// ValidAnalysisType 是否为支持的分析类型
func ValidAnalysisType(analysisType string) bool {
	return analysisType == TypeComprehensive || analysisType == TypeQuickSummary
}

// FormatPrompt 按分析类型选择模板，合同文本原样代入，不做截断
func FormatPrompt(text, analysisType string) (string, error) {
	var tmpl string
	switch analysisType {
	case TypeComprehensive:
		tmpl = comprehensiveTemplate
	case TypeQuickSummary:
		tmpl = quickSummaryTemplate
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAnalysisType, analysisType)
	}
	return strings.Replace(tmpl, textPlaceholder, text, 1), nil
}

// FormatClausePrompt 针对单个条款的模板
func FormatClausePrompt(text, clause string) string {
	// 条款占位符在文本之前，先代入文本也只会替换模板自身的占位符
	prompt := strings.Replace(clauseTemplate, textPlaceholder, text, 1)
	return strings.Replace(prompt, clausePlaceholder, strings.TrimSpace(clause), 1)
}
