package models

import "time"

// Team owns its people and its shift catalog.
type Team struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Code        string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Team) TableName() string { return "teams" }

// Person is a schedulable member of one team.
type Person struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TeamID         uint      `gorm:"uniqueIndex:uq_person_name;not null" json:"team_id"`
	Name           string    `gorm:"uniqueIndex:uq_person_name;size:128;not null" json:"name"`
	Active         bool      `gorm:"default:true" json:"active"`
	ShowInSchedule bool      `gorm:"default:true" json:"show_in_schedule"`
	SortIndex      int       `gorm:"default:0" json:"sort_index"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Person) TableName() string { return "people" }

// ShiftDefinition is one entry of a team's closed shift vocabulary.
// Schedule entries reference it loosely by code, so deactivating or
// deleting a definition never invalidates historical cells.
type ShiftDefinition struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TeamID      uint      `gorm:"uniqueIndex:uq_shift_code;not null" json:"team_id"`
	Code        string    `gorm:"uniqueIndex:uq_shift_code;size:32;not null" json:"code"`
	DisplayName string    `gorm:"size:64;not null" json:"display_name"`
	BgColor     string    `gorm:"size:16;not null" json:"bg_color"`
	TextColor   string    `gorm:"size:16;not null" json:"text_color"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ShiftDefinition) TableName() string { return "shift_definitions" }
