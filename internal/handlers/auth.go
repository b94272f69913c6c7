package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/config"
	"github.com/takumin/shiftboard/internal/middleware"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService       *services.AuthService
	permissionService *services.PermissionService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:       services.NewAuthService(db, &cfg.JWT),
		permissionService: services.NewPermissionService(db),
	}
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// FirstLogin completes the forced password change and issues a token
// POST /api/auth/first-login
func (h *AuthHandler) FirstLogin(c *gin.Context) {
	var req services.FirstLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.FirstLogin(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetCurrentUser returns the caller with resolved permissions
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	out, err := h.permissionService.Serialize(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword rotates the caller's password and returns a fresh token
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	result, err := h.authService.ChangePassword(user, req.NewPassword)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Logout handles user logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// CreateAdminIfNotExists creates the default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
