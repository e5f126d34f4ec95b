package analyzer

import "errors"

var (
	ErrUnsupportedFormat   = errors.New("不支持的文件格式")
	ErrExtraction          = errors.New("合同文本提取失败")
	ErrUnknownAnalysisType = errors.New("未知的分析类型")
	ErrRateLimited         = errors.New("模型服务请求过于频繁")
	ErrAuth                = errors.New("模型服务认证失败")
	ErrTransport           = errors.New("模型服务调用失败")
	ErrMalformedResponse   = errors.New("模型返回内容格式错误")
)

// Kind 返回错误类别，用于失败记录
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrUnknownAnalysisType):
		return "unknown_analysis_type"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "internal"
	}
}
