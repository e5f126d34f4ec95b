package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/contract_critic/internal/model/dto"
	"github.com/qs3c/contract_critic/internal/pkg/logger"
	"github.com/qs3c/contract_critic/internal/pkg/response"
	"github.com/qs3c/contract_critic/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 用户注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) || errors.Is(err, service.ErrUsernameExists) {
			response.DuplicateError(c, err.Error())
			return
		}
		logger.LogError("handler", "Register", req.Email, err)
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "注册成功，请登录", resp)
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.AuthError(c, err.Error())
			return
		}
		logger.LogError("handler", "Login", req.Email, err)
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "登录成功", resp)
}
