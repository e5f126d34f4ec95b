package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/contract_critic/internal/api/middleware"
	"github.com/qs3c/contract_critic/internal/model"
	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/service"
)

type ContractHandler struct {
	contractService *service.ContractService
}

func NewContractHandler(contractService *service.ContractService) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

// Upload 上传合同文件
// POST /api/v1/contracts/upload
func (h *ContractHandler) Upload(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	// 超大请求体在解析 multipart 时就中断，不会整体落盘
	if limit := h.contractService.UploadBodyLimit(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.ParamError(c, service.ErrFileTooLarge.Error())
			return
		}
		response.ParamError(c, "请选择要上传的文件")
		return
	}

	if _, err := h.contractService.ValidateUpload(fileHeader.Filename, fileHeader.Size); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ServerError(c, "读取上传文件失败")
		return
	}
	defer file.Close()

	item, err := h.contractService.Upload(c.Request.Context(), userID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileType),
			errors.Is(err, service.ErrFileTooLarge),
			errors.Is(err, service.ErrEmptyFile):
			response.ParamError(c, err.Error())
		default:
			logger.LogError("handler", "UploadContract", userID, err)
			response.ServerError(c, "合同上传失败")
		}
		return
	}

	response.SuccessWithMessage(c, "上传成功", item)
}

// List 获取合同列表
// GET /api/v1/contracts
func (h *ContractHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, pageSize := parsePage(c)
	status := c.Query("status")
	if status != "" && !model.ValidContractStatus(status) {
		response.ParamError(c, "无效的合同状态")
		return
	}

	items, total, err := h.contractService.List(userID, &dto.ContractListRequest{
		Page:     page,
		PageSize: pageSize,
		Status:   status,
	})
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Dashboard 合同概览
// GET /api/v1/contracts/dashboard
func (h *ContractHandler) Dashboard(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	dashboard, err := h.contractService.Dashboard(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, dashboard)
}

// Get 获取合同详情
// GET /api/v1/contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
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

	detail, err := h.contractService.Get(userID, contractID)
	if err != nil {
		handleContractError(c, err)
		return
	}

	response.Success(c, detail)
}

// Delete 删除合同及其分析记录
// DELETE /api/v1/contracts/:id
func (h *ContractHandler) Delete(c *gin.Context) {
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

	if err := h.contractService.Delete(c.Request.Context(), userID, contractID); err != nil {
		handleContractError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// handleContractError 合同归属相关错误的统一响应
func handleContractError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContractNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrContractPermission):
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
