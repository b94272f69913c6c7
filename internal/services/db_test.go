package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	utils.SetJWTSecret("test-secret-for-service-testing")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.Person{},
		&models.ShiftDefinition{}, &models.ScheduleEntry{},
		&models.UserPagePermission{}, &models.UserTeamPermission{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createTeam(t *testing.T, db *gorm.DB, name, code string) *models.Team {
	t.Helper()
	team := models.Team{Name: name, Code: code}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
	return &team
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("initial-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		Username:     username,
		DisplayName:  username,
		Password:     hash,
		IsActive:     true,
		TokenVersion: 1,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return &user
}

func grantPage(t *testing.T, db *gorm.DB, userID uint, page string, canView, canEdit bool) {
	t.Helper()
	perm := models.UserPagePermission{UserID: userID, Page: page, CanView: canView, CanEdit: canEdit}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("grant page %s: %v", page, err)
	}
}

func grantTeam(t *testing.T, db *gorm.DB, userID, teamID uint, level string) {
	t.Helper()
	perm := models.UserTeamPermission{UserID: userID, TeamID: teamID, AccessLevel: level}
	if err := db.Create(&perm).Error; err != nil {
		t.Fatalf("grant team %d: %v", teamID, err)
	}
}

func createPerson(t *testing.T, db *gorm.DB, teamID uint, name string, sortIndex int) *models.Person {
	t.Helper()
	person := models.Person{
		TeamID:         teamID,
		Name:           name,
		Active:         true,
		ShowInSchedule: true,
		SortIndex:      sortIndex,
	}
	if err := db.Create(&person).Error; err != nil {
		t.Fatalf("create person %s: %v", name, err)
	}
	return &person
}

func createShift(t *testing.T, db *gorm.DB, teamID uint, code, displayName string, sortOrder int) *models.ShiftDefinition {
	t.Helper()
	shift := models.ShiftDefinition{
		TeamID:      teamID,
		Code:        code,
		DisplayName: displayName,
		SortOrder:   sortOrder,
		IsActive:    true,
	}
	if err := db.Create(&shift).Error; err != nil {
		t.Fatalf("create shift %s: %v", code, err)
	}
	return &shift
}

func reloadUser(t *testing.T, db *gorm.DB, userID uint) *models.User {
	t.Helper()
	user, err := loadUserWithPermissions(db, userID)
	if err != nil {
		t.Fatalf("reload user %d: %v", userID, err)
	}
	return user
}

func day(value string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}
