package handlers

import (
	"errors"
	"net/http"

	"tradepost/services/user"
	"tradepost/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exposes account registration and login.
type AuthHandler struct {
	Service user.UserService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc user.UserService) *AuthHandler {
	return &AuthHandler{Service: svc}
}

// RegisterHandler handles POST /api/auth/register.
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.Service.Register(c.Request.Context(), req)
	if err != nil {
		var dupErr user.DuplicateAccountError
		if errors.As(err, &dupErr) {
			utils.JSONError(c, http.StatusBadRequest, dupErr.Error(), "")
			return
		}
		utils.GetLogger().Error("registration failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Registration failed", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": result})
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	result, err := h.Service.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			utils.JSONError(c, http.StatusBadRequest, "Invalid email or password", "")
			return
		}
		utils.GetLogger().Error("login failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}
