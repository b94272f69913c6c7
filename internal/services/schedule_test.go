package services

import (
	"strings"
	"testing"

	"github.com/takumin/shiftboard/internal/models"
	"gorm.io/gorm"
)

type gridFixture struct {
	db    *gorm.DB
	svc   *ScheduleService
	team  *models.Team
	alice *models.Person
	bob   *models.Person
}

// newGridFixture builds a team with two visible people, one hidden and one
// inactive person, and a small shift catalog.
func newGridFixture(t *testing.T) *gridFixture {
	t.Helper()
	db := newTestDB(t)
	team := createTeam(t, db, "Operations", "ops")

	alice := createPerson(t, db, team.ID, "Alice", 1)
	bob := createPerson(t, db, team.ID, "Bob", 2)

	hidden := createPerson(t, db, team.ID, "Hidden", 0)
	db.Model(hidden).Update("show_in_schedule", false)
	inactive := createPerson(t, db, team.ID, "Inactive", 0)
	db.Model(inactive).Update("active", false)

	createShift(t, db, team.ID, "DAY", "白班", 1)
	createShift(t, db, team.ID, "OFF", "休", 2)
	retired := createShift(t, db, team.ID, "OLD", "旧班", 3)
	db.Model(retired).Update("is_active", false)

	return &gridFixture{
		db:    db,
		svc:   NewScheduleService(db, NewHolidayService(), "NONE"),
		team:  team,
		alice: alice,
		bob:   bob,
	}
}

// editor returns a user with schedule edit capability and the given team level.
func (f *gridFixture) editor(t *testing.T, level string) *models.User {
	t.Helper()
	user := createUser(t, f.db, "editor-"+level)
	grantPage(t, f.db, user.ID, models.PageSchedule, true, true)
	grantTeam(t, f.db, user.ID, f.team.ID, level)
	return reloadUser(t, f.db, user.ID)
}

func (f *gridFixture) viewer(t *testing.T) *models.User {
	t.Helper()
	user := createUser(t, f.db, "viewer")
	grantPage(t, f.db, user.ID, models.PageSchedule, true, false)
	grantTeam(t, f.db, user.ID, f.team.ID, models.AccessWrite)
	return reloadUser(t, f.db, user.ID)
}

func TestGrid_DaysAndPeople(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	grid, err := f.svc.Grid(user, f.team.ID, day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}

	if len(grid.Days) != 3 {
		t.Fatalf("expected 3 day rows, got %d", len(grid.Days))
	}
	wantDates := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, want := range wantDates {
		if grid.Days[i].Date != want {
			t.Errorf("day[%d] = %s, want %s", i, grid.Days[i].Date, want)
		}
	}
	if grid.Days[0].Weekday != "周一" {
		t.Errorf("2024-01-01 weekday = %s, want 周一", grid.Days[0].Weekday)
	}

	if len(grid.People) != 2 {
		t.Fatalf("hidden and inactive people must be excluded, got %d people", len(grid.People))
	}
	if grid.People[0].Name != "Alice" || grid.People[1].Name != "Bob" {
		t.Errorf("people order = %s, %s; want Alice, Bob", grid.People[0].Name, grid.People[1].Name)
	}

	for _, d := range grid.Days {
		if len(d.Assignments) != len(grid.People) {
			t.Fatalf("day %s has %d cells for %d people", d.Date, len(d.Assignments), len(grid.People))
		}
	}

	if grid.Team.ID != f.team.ID {
		t.Errorf("grid team = %d, want %d", grid.Team.ID, f.team.ID)
	}
	if grid.ReadOnly {
		t.Error("write-level user with edit capability should not be read-only")
	}
}

func TestGrid_SingleDayRange(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	grid, err := f.svc.Grid(user, f.team.ID, day("2024-01-01"), day("2024-01-01"))
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if len(grid.Days) != 1 {
		t.Errorf("start == end must produce one row, got %d", len(grid.Days))
	}
}

func TestGrid_InvalidRange(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	_, err := f.svc.Grid(user, f.team.ID, day("2024-01-03"), day("2024-01-01"))
	if code := appErrCode(t, err); code != "invalid_range" {
		t.Errorf("error code = %q, want invalid_range", code)
	}
}

func TestGrid_ReadOnlyDerivation(t *testing.T) {
	f := newGridFixture(t)

	// Read-level team access forces read-only even with page edit capability.
	reader := f.editor(t, models.AccessRead)
	grid, err := f.svc.Grid(reader, f.team.ID, day("2024-01-01"), day("2024-01-01"))
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if !grid.ReadOnly {
		t.Error("read-level access must yield a read-only grid")
	}

	// Write-level access without page edit capability is read-only too.
	viewer := f.viewer(t)
	grid, err = f.svc.Grid(viewer, f.team.ID, day("2024-01-01"), day("2024-01-01"))
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if !grid.ReadOnly {
		t.Error("missing edit capability must yield a read-only grid")
	}
}

func TestGrid_NoTeamAccess(t *testing.T) {
	f := newGridFixture(t)
	user := createUser(t, f.db, "outsider")
	grantPage(t, f.db, user.ID, models.PageSchedule, true, true)
	loaded := reloadUser(t, f.db, user.ID)

	_, err := f.svc.Grid(loaded, f.team.ID, day("2024-01-01"), day("2024-01-02"))
	if code := appErrCode(t, err); code != "forbidden" {
		t.Errorf("error code = %q, want forbidden", code)
	}
}

func TestUpdateCell_AssignOverwriteClear(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)
	d := day("2024-01-01")

	// Assign.
	result, err := f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: d, ShiftCode: "DAY",
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if result.ShiftCode == nil || *result.ShiftCode != "DAY" {
		t.Fatalf("assign result = %v, want DAY", result.ShiftCode)
	}

	// Overwrite keeps a single row per cell.
	if _, err := f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: d, ShiftCode: "OFF",
	}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var count int64
	f.db.Model(&models.ScheduleEntry{}).
		Where("team_id = ? AND person_id = ?", f.team.ID, f.alice.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one row after overwrite, got %d", count)
	}

	var entry models.ScheduleEntry
	f.db.Where("team_id = ? AND person_id = ?", f.team.ID, f.alice.ID).First(&entry)
	if entry.ShiftCode != "OFF" {
		t.Errorf("stored code = %q, want OFF", entry.ShiftCode)
	}
	if entry.UpdatedBy != user.ID {
		t.Errorf("updated_by = %d, want %d", entry.UpdatedBy, user.ID)
	}

	// Clear removes the row.
	result, err = f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: d, ShiftCode: "",
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.ShiftCode != nil {
		t.Errorf("clear result = %v, want nil", *result.ShiftCode)
	}

	f.db.Model(&models.ScheduleEntry{}).
		Where("team_id = ? AND person_id = ?", f.team.ID, f.alice.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expected no rows after clear, got %d", count)
	}

	// Clearing an already-empty cell succeeds as a no-op.
	if _, err := f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: d, ShiftCode: "",
	}); err != nil {
		t.Fatalf("clear empty cell: %v", err)
	}
}

func TestUpdateCell_RequiresWriteAccess(t *testing.T) {
	f := newGridFixture(t)
	reader := f.editor(t, models.AccessRead)

	_, err := f.svc.UpdateCell(reader, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: day("2024-01-01"), ShiftCode: "DAY",
	})
	if code := appErrCode(t, err); code != "forbidden" {
		t.Errorf("error code = %q, want forbidden", code)
	}
}

func TestUpdateCell_InvalidShift(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	for _, code := range []string{"NOPE", "OLD"} {
		_, err := f.svc.UpdateCell(user, &UpdateCellRequest{
			TeamID: f.team.ID, PersonID: f.alice.ID, Day: day("2024-01-01"), ShiftCode: code,
		})
		if got := appErrCode(t, err); got != "invalid_shift" {
			t.Errorf("code %s: error = %q, want invalid_shift", code, got)
		}
	}
}

func TestUpdateCell_PersonFromAnotherTeam(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	other := createTeam(t, f.db, "Support", "sup")
	stranger := createPerson(t, f.db, other.ID, "Stranger", 1)

	_, err := f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: stranger.ID, Day: day("2024-01-01"), ShiftCode: "DAY",
	})
	if code := appErrCode(t, err); code != "not_found" {
		t.Errorf("error code = %q, want not_found", code)
	}
}

func TestGrid_ReflectsAssignments(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	if _, err := f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: day("2024-01-02"), ShiftCode: "DAY",
	}); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	grid, err := f.svc.Grid(user, f.team.ID, day("2024-01-01"), day("2024-01-03"))
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}

	// Alice is the first person column.
	if grid.Days[0].Assignments[0].ShiftCode != nil {
		t.Error("2024-01-01 should have no assignment")
	}
	cell := grid.Days[1].Assignments[0]
	if cell.ShiftCode == nil || *cell.ShiftCode != "DAY" {
		t.Errorf("2024-01-02 assignment = %v, want DAY", cell.ShiftCode)
	}
	if grid.Days[1].Assignments[1].ShiftCode != nil {
		t.Error("Bob should have no assignment")
	}
}

func TestExport_CSV(t *testing.T) {
	f := newGridFixture(t)
	user := f.editor(t, models.AccessWrite)

	if _, err := f.svc.UpdateCell(user, &UpdateCellRequest{
		TeamID: f.team.ID, PersonID: f.alice.ID, Day: day("2024-01-01"), ShiftCode: "DAY",
	}); err != nil {
		t.Fatalf("UpdateCell: %v", err)
	}

	filename, data, err := f.svc.Export(user, f.team.ID, day("2024-01-01"), day("2024-01-02"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	if filename != "schedule_1_2024-01-01_2024-01-02.csv" {
		t.Errorf("filename = %q", filename)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 day rows, got %d lines", len(lines))
	}
	if lines[0] != "日期,星期,Alice,Bob" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-01-01,周一,白班," {
		t.Errorf("first row = %q", lines[1])
	}
	if lines[2] != "2024-01-02,周二,," {
		t.Errorf("second row = %q", lines[2])
	}
}
