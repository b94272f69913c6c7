package models

import "time"

// User represents a system user. TokenVersion is embedded in every issued
// session token; bumping it invalidates all outstanding sessions.
type User struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	DisplayName        string    `gorm:"size:128;not null" json:"display_name"`
	Password           string    `gorm:"size:255;not null" json:"-"` // bcrypt hash
	MustChangePassword bool      `gorm:"default:false" json:"must_change_password"`
	IsActive           bool      `gorm:"default:true" json:"is_active"`
	TokenVersion       int       `gorm:"default:1" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	PagePermissions []UserPagePermission `gorm:"foreignKey:UserID" json:"-"`
	TeamPermissions []UserTeamPermission `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string { return "users" }
