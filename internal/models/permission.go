package models

// Pages with their own view/edit capability. Authorization decisions only
// ever reference these keys, never entity names.
const (
	PageSchedule    = "schedule"
	PageSettings    = "settings"
	PagePermissions = "permissions"
	PagePeople      = "people"
)

// ValidPages is the closed set of page keys accepted by the permission
// administrator.
var ValidPages = map[string]bool{
	PageSchedule:    true,
	PageSettings:    true,
	PagePermissions: true,
	PagePeople:      true,
}

// Team access levels.
const (
	AccessRead  = "read"
	AccessWrite = "write"
)

// UserPagePermission grants one user view/edit capability on one page.
// At most one row per (user, page); can_edit implies can_view, enforced on
// every write by the permission service.
type UserPagePermission struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"uniqueIndex:uq_user_page;not null" json:"user_id"`
	Page    string `gorm:"uniqueIndex:uq_user_page;size:32;not null" json:"page"`
	CanView bool   `gorm:"default:false" json:"can_view"`
	CanEdit bool   `gorm:"default:false" json:"can_edit"`
}

func (UserPagePermission) TableName() string { return "user_page_permissions" }

// UserTeamPermission grants one user read or write access to one team's
// data. At most one row per (user, team); absence means no access.
type UserTeamPermission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"uniqueIndex:uq_user_team;not null" json:"user_id"`
	TeamID      uint   `gorm:"uniqueIndex:uq_user_team;not null" json:"team_id"`
	AccessLevel string `gorm:"size:16;not null" json:"access_level"` // read, write

	Team *Team `gorm:"foreignKey:TeamID" json:"-"`
}

func (UserTeamPermission) TableName() string { return "user_team_permissions" }
