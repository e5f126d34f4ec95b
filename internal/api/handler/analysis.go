package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/contract_critic/internal/analyzer"
	"github.com/qs3c/contract_critic/internal/api/middleware"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/service"
	"github.com/qs3c/contract_critic/internal/worker"
)

type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
	}
}

// Analyze 分析合同
// POST /api/v1/contracts/:id/analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	contractID, ok := parseID(c, "id")
	if !ok {
		response.ParamError(c, "无效的合同ID")
		return
	}

	// 请求体可以为空，此时按综合分析处理
	var req dto.AnalyzeRequest
	// 分块传输时 ContentLength 为 -1
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			response.ParamError(c, err.Error())
			return
		}
	}

	summary, err := h.analysisService.Analyze(c.Request.Context(), userID, contractID, &req)
	if err != nil {
		h.handleAnalyzeError(c, contractID, err)
		return
	}

	response.SuccessWithMessage(c, "分析完成", summary)
}

func (h *AnalysisHandler) handleAnalyzeError(c *gin.Context, contractID int64, err error) {
	var stageErr *worker.StageError
	switch {
	case errors.Is(err, analyzer.ErrUnknownAnalysisType):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrContractNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrContractPermission):
		response.PermissionError(c, err.Error())
	case errors.Is(err, service.ErrQuotaExceeded):
		response.QuotaError(c, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.AuthError(c, err.Error())
	case errors.As(err, &stageErr):
		info := &dto.AnalysisFailureInfo{
			ContractID: contractID,
			Stage:      stageErr.Stage,
			Kind:       analyzer.Kind(err),
		}
		code := response.CodeAnalysisFailed
		if errors.Is(err, analyzer.ErrRateLimited) {
			code = response.CodeRateLimited
		}
		response.ErrorWithData(c, code, failureMessage(err), info)
	default:
		logger.LogError("handler", "Analyze", contractID, err)
		response.ServerError(c, "")
	}
}

// failureMessage 面向用户的失败原因，不暴露底层错误细节
func failureMessage(err error) string {
	for _, sentinel := range []error{
		analyzer.ErrUnsupportedFormat,
		analyzer.ErrExtraction,
		analyzer.ErrRateLimited,
		analyzer.ErrAuth,
		analyzer.ErrTransport,
		analyzer.ErrMalformedResponse,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "合同分析失败"
}

// Latest 获取最近一次分析结果
// GET /api/v1/contracts/:id/analysis
func (h *AnalysisHandler) Latest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	contractID, ok := parseID(c, "id")
	if !ok {
		response.ParamError(c, "无效的合同ID")
		return
	}

	detail, err := h.analysisService.Latest(userID, contractID)
	if err != nil {
		handleAnalysisError(c, err)
		return
	}

	response.Success(c, detail)
}

// History 获取分析历史
// GET /api/v1/contracts/:id/analyses
func (h *AnalysisHandler) History(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	contractID, ok := parseID(c, "id")
	if !ok {
		response.ParamError(c, "无效的合同ID")
		return
	}

	items, err := h.analysisService.History(userID, contractID)
	if err != nil {
		handleAnalysisError(c, err)
		return
	}

	response.Success(c, items)
}

// Get 获取指定的一次分析
// GET /api/v1/contracts/:id/analyses/:analysis_id
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	contractID, ok := parseID(c, "id")
	if !ok {
		response.ParamError(c, "无效的合同ID")
		return
	}
	analysisID, ok := parseID(c, "analysis_id")
	if !ok {
		response.ParamError(c, "无效的分析ID")
		return
	}

	detail, err := h.analysisService.Get(userID, contractID, analysisID)
	if err != nil {
		handleAnalysisError(c, err)
		return
	}

	response.Success(c, detail)
}

func handleAnalysisError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAnalysisNotFound) {
		response.NotFoundError(c, err.Error())
		return
	}
	handleContractError(c, err)
}
