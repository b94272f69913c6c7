package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type PermissionHandler struct {
	permissionService *services.PermissionService
}

func NewPermissionHandler(db *gorm.DB) *PermissionHandler {
	return &PermissionHandler{
		permissionService: services.NewPermissionService(db),
	}
}

// Overview returns every user with resolved permissions plus the team list
// GET /api/permissions
func (h *PermissionHandler) Overview(c *gin.Context) {
	overview, err := h.permissionService.Overview()
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, overview)
}

// CreateUser creates an account together with its initial permissions
// POST /api/permissions/users
func (h *PermissionHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.permissionService.CreateUser(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// UpdateUser reconciles a user's page and team permissions
// PUT /api/permissions/users/:id
func (h *PermissionHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req services.UserPermissionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.permissionService.UpdateUser(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// DeleteUser removes an account and everything hanging off it
// DELETE /api/permissions/users/:id
func (h *PermissionHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	if err := h.permissionService.DeleteUser(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
