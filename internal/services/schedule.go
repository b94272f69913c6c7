package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

const dayFormat = "2006-01-02"

var weekdayNames = []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

func weekdayName(t time.Time) string {
	// time.Weekday starts at Sunday
	return weekdayNames[(int(t.Weekday())+6)%7]
}

// ScheduleService builds the date-range × person grid for a team and
// applies single-cell writes. The page-level permission check happens at
// the route; the team-level check lives here because the service needs the
// resolved access level for the read-only flag.
type ScheduleService struct {
	db             *gorm.DB
	holidays       *HolidayService
	holidayCountry string
}

func NewScheduleService(db *gorm.DB, holidays *HolidayService, holidayCountry string) *ScheduleService {
	return &ScheduleService{db: db, holidays: holidays, holidayCountry: holidayCountry}
}

type ScheduleCell struct {
	PersonID  uint    `json:"person_id"`
	ShiftCode *string `json:"shift_code"`
}

type ScheduleDay struct {
	Date        string         `json:"date"`
	Weekday     string         `json:"weekday"`
	IsWorkday   bool           `json:"is_workday"`
	Assignments []ScheduleCell `json:"assignments"`
}

type GridResponse struct {
	Team     TeamOut                  `json:"team"`
	Start    string                   `json:"start"`
	End      string                   `json:"end"`
	Days     []ScheduleDay            `json:"days"`
	People   []models.Person          `json:"people"`
	Shifts   []models.ShiftDefinition `json:"shifts"`
	ReadOnly bool                     `json:"read_only"`
}

type UpdateCellRequest struct {
	TeamID    uint
	PersonID  uint
	Day       time.Time
	ShiftCode string // empty clears the cell
}

type UpdateCellResult struct {
	PersonID  uint      `json:"person_id"`
	Day       string    `json:"day"`
	ShiftCode *string   `json:"shift_code"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy uint      `json:"updated_by"`
}

func (s *ScheduleService) collectPeople(teamID uint) ([]models.Person, error) {
	var people []models.Person
	err := s.db.Where("team_id = ? AND active = ? AND show_in_schedule = ?", teamID, true, true).
		Order("sort_index ASC, name ASC").
		Find(&people).Error
	return people, err
}

func (s *ScheduleService) collectShifts(teamID uint) ([]models.ShiftDefinition, error) {
	var shifts []models.ShiftDefinition
	err := s.db.Where("team_id = ?", teamID).
		Order("sort_order ASC, id ASC").
		Find(&shifts).Error
	return shifts, err
}

func (s *ScheduleService) collectEntries(teamID uint, people []models.Person, start, end time.Time) (map[uint]map[string]string, error) {
	lookup := make(map[uint]map[string]string)
	if len(people) == 0 {
		return lookup, nil
	}

	ids := make([]uint, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}

	var entries []models.ScheduleEntry
	err := s.db.Where("team_id = ? AND person_id IN ? AND day >= ? AND day <= ?", teamID, ids, start, end).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		byDay, ok := lookup[entry.PersonID]
		if !ok {
			byDay = make(map[string]string)
			lookup[entry.PersonID] = byDay
		}
		byDay[entry.Day.Format(dayFormat)] = entry.ShiftCode
	}
	return lookup, nil
}

// Grid builds one row per calendar day in [start, end], each with one cell
// per visible person, and derives the read-only flag from the caller's
// team access level and schedule edit capability.
func (s *ScheduleService) Grid(user *models.User, teamID uint, start, end time.Time) (*GridResponse, error) {
	level, err := TeamAccess(user, teamID, models.AccessRead)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, response.NewInvalidInput("invalid_range")
	}

	people, err := s.collectPeople(teamID)
	if err != nil {
		return nil, err
	}
	shifts, err := s.collectShifts(teamID)
	if err != nil {
		return nil, err
	}
	lookup, err := s.collectEntries(teamID, people, start, end)
	if err != nil {
		return nil, err
	}

	readOnly := ReadOnly(level, CanEditPage(user, models.PageSchedule))

	var team TeamOut
	found := false
	for _, perm := range user.TeamPermissions {
		if perm.TeamID == teamID && perm.Team != nil {
			team = TeamOut{
				ID:          perm.Team.ID,
				Name:        perm.Team.Name,
				Code:        perm.Team.Code,
				Description: perm.Team.Description,
				AccessLevel: &level,
			}
			found = true
			break
		}
	}
	if !found {
		return nil, response.NewNotFound("not_found")
	}

	totalDays := int(end.Sub(start).Hours()/24) + 1
	days := make([]ScheduleDay, 0, totalDays)
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		assignments := make([]ScheduleCell, 0, len(people))
		for _, person := range people {
			cell := ScheduleCell{PersonID: person.ID}
			if code, ok := lookup[person.ID][current.Format(dayFormat)]; ok && code != "" {
				c := code
				cell.ShiftCode = &c
			}
			assignments = append(assignments, cell)
		}
		days = append(days, ScheduleDay{
			Date:        current.Format(dayFormat),
			Weekday:     weekdayName(current),
			IsWorkday:   s.holidays.IsWorkday(current, s.holidayCountry),
			Assignments: assignments,
		})
	}

	return &GridResponse{
		Team:     team,
		Start:    start.Format(dayFormat),
		End:      end.Format(dayFormat),
		Days:     days,
		People:   people,
		Shifts:   shifts,
		ReadOnly: readOnly,
	}, nil
}

// UpdateCell applies one cell write: upsert keyed by (team, person, day),
// or row deletion when the code is empty. Concurrent writers to the same
// cell race and the last commit wins; there is deliberately no version
// token and no conflict signal to the losing writer.
func (s *ScheduleService) UpdateCell(user *models.User, req *UpdateCellRequest) (*UpdateCellResult, error) {
	if _, err := TeamAccess(user, req.TeamID, models.AccessWrite); err != nil {
		return nil, err
	}

	var result *UpdateCellResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var person models.Person
		if err := tx.First(&person, req.PersonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("not_found")
			}
			return err
		}
		if person.TeamID != req.TeamID {
			return response.NewNotFound("not_found")
		}

		if req.ShiftCode != "" {
			var count int64
			tx.Model(&models.ShiftDefinition{}).
				Where("team_id = ? AND code = ? AND is_active = ?", req.TeamID, req.ShiftCode, true).
				Count(&count)
			if count == 0 {
				return response.NewInvalidInput("invalid_shift")
			}
		}

		var entry models.ScheduleEntry
		err := tx.Where("team_id = ? AND person_id = ? AND day = ?", req.TeamID, req.PersonID, req.Day).
			First(&entry).Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if req.ShiftCode == "" {
			// Clearing removes the row; absence is how "no assignment"
			// is represented. Clearing an empty cell is a no-op success.
			if exists {
				if err := tx.Delete(&entry).Error; err != nil {
					return err
				}
			}
			result = &UpdateCellResult{
				PersonID:  req.PersonID,
				Day:       req.Day.Format(dayFormat),
				UpdatedAt: time.Now(),
				UpdatedBy: user.ID,
			}
			return nil
		}

		if !exists {
			entry = models.ScheduleEntry{
				TeamID:   req.TeamID,
				PersonID: req.PersonID,
				Day:      req.Day,
			}
		}
		entry.ShiftCode = req.ShiftCode
		entry.UpdatedBy = user.ID
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		code := entry.ShiftCode
		result = &UpdateCellResult{
			PersonID:  entry.PersonID,
			Day:       entry.Day.Format(dayFormat),
			ShiftCode: &code,
			UpdatedAt: entry.UpdatedAt,
			UpdatedBy: entry.UpdatedBy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Export renders the grid as CSV, one row per day, one column per person,
// using shift display names (raw code when the definition is gone). It is
// a pure projection of the Grid read path and performs no extra checks.
func (s *ScheduleService) Export(user *models.User, teamID uint, start, end time.Time) (string, []byte, error) {
	grid, err := s.Grid(user, teamID, start, end)
	if err != nil {
		return "", nil, err
	}

	displayNames := make(map[string]string, len(grid.Shifts))
	for _, shift := range grid.Shifts {
		displayNames[shift.Code] = shift.DisplayName
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"日期", "星期"}
	for _, person := range grid.People {
		header = append(header, person.Name)
	}
	if err := writer.Write(header); err != nil {
		return "", nil, err
	}

	for _, day := range grid.Days {
		row := []string{day.Date, day.Weekday}
		for _, cell := range day.Assignments {
			value := ""
			if cell.ShiftCode != nil {
				if name, ok := displayNames[*cell.ShiftCode]; ok {
					value = name
				} else {
					value = *cell.ShiftCode
				}
			}
			row = append(row, value)
		}
		if err := writer.Write(row); err != nil {
			return "", nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", nil, err
	}

	filename := fmt.Sprintf("schedule_%d_%s_%s.csv", teamID, grid.Start, grid.End)
	return filename, buf.Bytes(), nil
}
