package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/middleware"
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type ShiftHandler struct {
	db *gorm.DB
}

func NewShiftHandler(db *gorm.DB) *ShiftHandler {
	return &ShiftHandler{db: db}
}

func (h *ShiftHandler) teamID(c *gin.Context, minLevel string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("team_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return 0, false
	}

	if _, err := services.TeamAccess(middleware.GetUser(c), uint(id), minLevel); err != nil {
		response.Error(c, err)
		return 0, false
	}

	var team models.Team
	if err := h.db.First(&team, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, response.NewNotFound("team_not_found"))
		} else {
			response.Error(c, err)
		}
		return 0, false
	}
	return uint(id), true
}

// List returns a team's shift catalog
// GET /api/teams/:team_id/shifts
func (h *ShiftHandler) List(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessRead)
	if !ok {
		return
	}

	var shifts []models.ShiftDefinition
	err := h.db.Where("team_id = ?", teamID).
		Order("sort_order ASC, id ASC").Find(&shifts).Error
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, shifts)
}

type createShiftRequest struct {
	Code        string `json:"code" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	BgColor     string `json:"bg_color"`
	TextColor   string `json:"text_color"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

// Create adds a shift definition to a team's catalog
// POST /api/teams/:team_id/shifts
func (h *ShiftHandler) Create(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessWrite)
	if !ok {
		return
	}

	var req createShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var count int64
	h.db.Model(&models.ShiftDefinition{}).
		Where("team_id = ? AND code = ?", teamID, req.Code).Count(&count)
	if count > 0 {
		response.Error(c, response.NewConflict("duplicate_shift_code"))
		return
	}

	shift := models.ShiftDefinition{
		TeamID:      teamID,
		Code:        req.Code,
		DisplayName: req.DisplayName,
		BgColor:     req.BgColor,
		TextColor:   req.TextColor,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}
	if req.IsActive != nil {
		shift.IsActive = *req.IsActive
	}

	if err := h.db.Create(&shift).Error; err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, shift)
}

type updateShiftRequest struct {
	DisplayName *string `json:"display_name"`
	BgColor     *string `json:"bg_color"`
	TextColor   *string `json:"text_color"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// Update changes shift fields; the code itself is immutable because
// schedule entries reference it by value
// PUT /api/teams/:team_id/shifts/:id
func (h *ShiftHandler) Update(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessWrite)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid shift id")
		return
	}

	var shift models.ShiftDefinition
	err = h.db.Where("id = ? AND team_id = ?", uint(id), teamID).First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, response.NewNotFound("not_found"))
		} else {
			response.Error(c, err)
		}
		return
	}

	var req updateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.BgColor != nil {
		updates["bg_color"] = *req.BgColor
	}
	if req.TextColor != nil {
		updates["text_color"] = *req.TextColor
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(&shift).Updates(updates).Error; err != nil {
			response.Error(c, err)
			return
		}
	}

	response.Success(c, shift)
}

// Delete removes a shift definition. Existing schedule entries keep the
// raw code; exports fall back to printing it verbatim.
// DELETE /api/teams/:team_id/shifts/:id
func (h *ShiftHandler) Delete(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessWrite)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid shift id")
		return
	}

	result := h.db.Where("id = ? AND team_id = ?", uint(id), teamID).Delete(&models.ShiftDefinition{})
	if result.Error != nil {
		response.Error(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		response.Error(c, response.NewNotFound("not_found"))
		return
	}

	response.NoContent(c)
}
