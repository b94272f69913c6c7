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

type PersonHandler struct {
	db *gorm.DB
}

func NewPersonHandler(db *gorm.DB) *PersonHandler {
	return &PersonHandler{db: db}
}

// teamID resolves the path team, enforcing the caller's team access level
// before the existence check so a denial never leaks whether the team is real.
func (h *PersonHandler) teamID(c *gin.Context, minLevel string) (uint, bool) {
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

// List returns every person of a team, ordered the way the grid orders them
// GET /api/teams/:team_id/people
func (h *PersonHandler) List(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessRead)
	if !ok {
		return
	}

	var people []models.Person
	err := h.db.Where("team_id = ?", teamID).
		Order("sort_index ASC, name ASC").Find(&people).Error
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, people)
}

type createPersonRequest struct {
	Name           string `json:"name" binding:"required"`
	Active         *bool  `json:"active"`
	ShowInSchedule *bool  `json:"show_in_schedule"`
	SortIndex      int    `json:"sort_index"`
}

// Create adds a person to a team
// POST /api/teams/:team_id/people
func (h *PersonHandler) Create(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessWrite)
	if !ok {
		return
	}

	var req createPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var count int64
	h.db.Model(&models.Person{}).Where("team_id = ? AND name = ?", teamID, req.Name).Count(&count)
	if count > 0 {
		response.Error(c, response.NewConflict("duplicate_person"))
		return
	}

	person := models.Person{
		TeamID:         teamID,
		Name:           req.Name,
		Active:         true,
		ShowInSchedule: true,
		SortIndex:      req.SortIndex,
	}
	if req.Active != nil {
		person.Active = *req.Active
	}
	if req.ShowInSchedule != nil {
		person.ShowInSchedule = *req.ShowInSchedule
	}

	if err := h.db.Create(&person).Error; err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, person)
}

type updatePersonRequest struct {
	Name           *string `json:"name"`
	Active         *bool   `json:"active"`
	ShowInSchedule *bool   `json:"show_in_schedule"`
	SortIndex      *int    `json:"sort_index"`
}

// Update changes person fields; absent fields stay untouched
// PUT /api/teams/:team_id/people/:id
func (h *PersonHandler) Update(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessWrite)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return
	}

	var person models.Person
	err = h.db.Where("id = ? AND team_id = ?", uint(id), teamID).First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, response.NewNotFound("not_found"))
		} else {
			response.Error(c, err)
		}
		return
	}

	var req updatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != person.Name {
		var count int64
		h.db.Model(&models.Person{}).
			Where("team_id = ? AND name = ? AND id <> ?", teamID, *req.Name, person.ID).
			Count(&count)
		if count > 0 {
			response.Error(c, response.NewConflict("duplicate_person"))
			return
		}
		updates["name"] = *req.Name
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if req.ShowInSchedule != nil {
		updates["show_in_schedule"] = *req.ShowInSchedule
	}
	if req.SortIndex != nil {
		updates["sort_index"] = *req.SortIndex
	}

	if len(updates) > 0 {
		if err := h.db.Model(&person).Updates(updates).Error; err != nil {
			response.Error(c, err)
			return
		}
	}

	response.Success(c, person)
}

// Delete removes a person and their schedule entries
// DELETE /api/teams/:team_id/people/:id
func (h *PersonHandler) Delete(c *gin.Context) {
	teamID, ok := h.teamID(c, models.AccessWrite)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid person id")
		return
	}

	var person models.Person
	err = h.db.Where("id = ? AND team_id = ?", uint(id), teamID).First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, response.NewNotFound("not_found"))
		} else {
			response.Error(c, err)
		}
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("person_id = ?", person.ID).Delete(&models.ScheduleEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&person).Error
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
