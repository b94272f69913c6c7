package models

import "time"

// ScheduleEntry is one grid cell: the shift assigned to a person on a day.
// At most one row per (team, person, day). "No assignment" is represented
// by the absence of a row; clearing a cell deletes it instead of storing an
// empty code.
type ScheduleEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"uniqueIndex:uq_schedule_cell;not null" json:"team_id"`
	PersonID  uint      `gorm:"uniqueIndex:uq_schedule_cell;not null" json:"person_id"`
	Day       time.Time `gorm:"uniqueIndex:uq_schedule_cell;type:date;not null" json:"day"`
	ShiftCode string    `gorm:"size:32;not null" json:"shift_code"`
	UpdatedBy uint      `gorm:"not null" json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ScheduleEntry) TableName() string { return "schedule_entries" }
