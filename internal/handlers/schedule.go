package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/config"
	"github.com/takumin/shiftboard/internal/middleware"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

func NewScheduleHandler(db *gorm.DB, cfg *config.Config) *ScheduleHandler {
	holidays := services.NewHolidayService()
	return &ScheduleHandler{
		scheduleService: services.NewScheduleService(db, holidays, cfg.Schedule.HolidayCountry),
	}
}

func parseDay(value string) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	return day, err == nil
}

func (h *ScheduleHandler) gridParams(c *gin.Context) (teamID uint, start, end time.Time, ok bool) {
	id, err := strconv.ParseUint(c.Query("team_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid team_id")
		return 0, time.Time{}, time.Time{}, false
	}

	start, okStart := parseDay(c.Query("start"))
	end, okEnd := parseDay(c.Query("end"))
	if !okStart || !okEnd {
		response.BadRequest(c, "start and end must be YYYY-MM-DD dates")
		return 0, time.Time{}, time.Time{}, false
	}

	return uint(id), start, end, true
}

// Grid returns the schedule matrix for a team and date range
// GET /api/schedule?team_id=&start=&end=
func (h *ScheduleHandler) Grid(c *gin.Context) {
	teamID, start, end, ok := h.gridParams(c)
	if !ok {
		return
	}

	grid, err := h.scheduleService.Grid(middleware.GetUser(c), teamID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, grid)
}

type updateCellRequest struct {
	TeamID    uint   `json:"team_id" binding:"required"`
	PersonID  uint   `json:"person_id" binding:"required"`
	Day       string `json:"day" binding:"required"`
	ShiftCode string `json:"shift_code"`
}

// UpdateCell assigns or clears one schedule cell
// PUT /api/schedule/cell
func (h *ScheduleHandler) UpdateCell(c *gin.Context) {
	var req updateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	day, ok := parseDay(req.Day)
	if !ok {
		response.BadRequest(c, "day must be a YYYY-MM-DD date")
		return
	}

	result, err := h.scheduleService.UpdateCell(middleware.GetUser(c), &services.UpdateCellRequest{
		TeamID:    req.TeamID,
		PersonID:  req.PersonID,
		Day:       day,
		ShiftCode: req.ShiftCode,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Export streams the schedule range as a CSV download
// GET /api/schedule/export?team_id=&start=&end=
func (h *ScheduleHandler) Export(c *gin.Context) {
	teamID, start, end, ok := h.gridParams(c)
	if !ok {
		return
	}

	filename, data, err := h.scheduleService.Export(middleware.GetUser(c), teamID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "text/csv; charset=utf-8", data)
}
