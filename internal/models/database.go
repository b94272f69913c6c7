package models

import (
	"fmt"
	"time"

	"github.com/takumin/shiftboard/internal/config"
	"github.com/takumin/shiftboard/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&User{},
		&Team{},
		&UserPagePermission{},
		&UserTeamPermission{},
		&Person{},
		&ShiftDefinition{},
		&ScheduleEntry{},
		&AuditLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDemoData inserts two demo teams with shift catalogs, people, two
// non-admin users and a few sample assignments. It is a no-op unless the
// teams table is empty.
func SeedDemoData() error {
	var teamCount int64
	DB.Model(&Team{}).Count(&teamCount)
	if teamCount > 0 {
		return nil
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		ops := Team{Name: "运营一组", Code: "ops", Description: "主要负责日常运营"}
		support := Team{Name: "客服组", Code: "support", Description: "客户支持团队"}
		if err := tx.Create(&ops).Error; err != nil {
			return err
		}
		if err := tx.Create(&support).Error; err != nil {
			return err
		}

		opsShifts := []ShiftDefinition{
			{TeamID: ops.ID, Code: "DAY", DisplayName: "白班", BgColor: "#facc15", TextColor: "#1f2937", SortOrder: 1, IsActive: true},
			{TeamID: ops.ID, Code: "SWING", DisplayName: "中班", BgColor: "#60a5fa", TextColor: "#0f172a", SortOrder: 2, IsActive: true},
			{TeamID: ops.ID, Code: "NIGHT", DisplayName: "夜班", BgColor: "#818cf8", TextColor: "#111827", SortOrder: 3, IsActive: true},
			{TeamID: ops.ID, Code: "OFF", DisplayName: "休息", BgColor: "#d1d5db", TextColor: "#374151", SortOrder: 4, IsActive: true},
		}
		supportShifts := []ShiftDefinition{
			{TeamID: support.ID, Code: "MORNING", DisplayName: "早班", BgColor: "#34d399", TextColor: "#064e3b", SortOrder: 1, IsActive: true},
			{TeamID: support.ID, Code: "EVENING", DisplayName: "晚班", BgColor: "#f472b6", TextColor: "#831843", SortOrder: 2, IsActive: true},
			{TeamID: support.ID, Code: "OFF", DisplayName: "休息", BgColor: "#d1d5db", TextColor: "#374151", SortOrder: 3, IsActive: true},
		}
		if err := tx.Create(&opsShifts).Error; err != nil {
			return err
		}
		if err := tx.Create(&supportShifts).Error; err != nil {
			return err
		}

		opsPeople := []Person{
			{TeamID: ops.ID, Name: "张三", Active: true, ShowInSchedule: true, SortIndex: 1},
			{TeamID: ops.ID, Name: "李四", Active: true, ShowInSchedule: true, SortIndex: 2},
			{TeamID: ops.ID, Name: "王五", Active: true, ShowInSchedule: true, SortIndex: 3},
		}
		supportPeople := []Person{
			{TeamID: support.ID, Name: "Alice", Active: true, ShowInSchedule: true, SortIndex: 1},
			{TeamID: support.ID, Name: "Bob", Active: true, ShowInSchedule: true, SortIndex: 2},
			{TeamID: support.ID, Name: "Carol", Active: true, ShowInSchedule: true, SortIndex: 3},
		}
		if err := tx.Create(&opsPeople).Error; err != nil {
			return err
		}
		if err := tx.Create(&supportPeople).Error; err != nil {
			return err
		}

		plannerHash, err := utils.HashPassword("planner123")
		if err != nil {
			return err
		}
		viewerHash, err := utils.HashPassword("viewer123")
		if err != nil {
			return err
		}
		planner := User{Username: "planner", DisplayName: "排班专员", Password: plannerHash, IsActive: true, TokenVersion: 1}
		viewer := User{Username: "viewer", DisplayName: "排班观察员", Password: viewerHash, IsActive: true, TokenVersion: 1}
		if err := tx.Create(&planner).Error; err != nil {
			return err
		}
		if err := tx.Create(&viewer).Error; err != nil {
			return err
		}

		plannerPerms := []UserPagePermission{
			{UserID: planner.ID, Page: PageSchedule, CanView: true, CanEdit: true},
			{UserID: planner.ID, Page: PagePeople, CanView: true, CanEdit: true},
			{UserID: planner.ID, Page: PageSettings, CanView: true, CanEdit: true},
		}
		if err := tx.Create(&plannerPerms).Error; err != nil {
			return err
		}
		if err := tx.Create(&UserTeamPermission{UserID: planner.ID, TeamID: ops.ID, AccessLevel: AccessWrite}).Error; err != nil {
			return err
		}

		if err := tx.Create(&UserPagePermission{UserID: viewer.ID, Page: PageSchedule, CanView: true, CanEdit: false}).Error; err != nil {
			return err
		}
		if err := tx.Create(&UserTeamPermission{UserID: viewer.ID, TeamID: support.ID, AccessLevel: AccessRead}).Error; err != nil {
			return err
		}

		monthStart := time.Now().UTC().Truncate(24 * time.Hour)
		monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
		for i, person := range opsPeople {
			code := "DAY"
			if i%2 == 1 {
				code = "SWING"
			}
			entry := ScheduleEntry{
				TeamID:    ops.ID,
				PersonID:  person.ID,
				Day:       monthStart.AddDate(0, 0, i),
				ShiftCode: code,
				UpdatedBy: planner.ID,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
