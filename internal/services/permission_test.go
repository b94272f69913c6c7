package services

import (
	"errors"
	"testing"

	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/utils"
	"github.com/takumin/shiftboard/pkg/response"
)

func strPtr(s string) *string { return &s }

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *response.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.Message
}

func TestCreateUser_WithPermissions(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	team := createTeam(t, db, "Operations", "ops")

	user, err := svc.CreateUser(&CreateUserRequest{
		Username:    "planner",
		DisplayName: "Planner",
		Password:    "secret-password",
		Pages: []PagePermissionInput{
			{Page: models.PageSchedule, CanView: true, CanEdit: true},
			{Page: models.PageSettings, CanView: true},
		},
		Teams: []TeamPermissionInput{
			{TeamID: team.ID, AccessLevel: strPtr(models.AccessWrite)},
		},
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if len(user.Pages) != 2 {
		t.Fatalf("expected 2 page permissions, got %d", len(user.Pages))
	}
	if len(user.Teams) != 1 {
		t.Fatalf("expected 1 team permission, got %d", len(user.Teams))
	}
	if user.Teams[0].AccessLevel != models.AccessWrite {
		t.Errorf("access level = %q, want %q", user.Teams[0].AccessLevel, models.AccessWrite)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	createUser(t, db, "planner")

	_, err := svc.CreateUser(&CreateUserRequest{
		Username:    "planner",
		DisplayName: "Planner",
		Password:    "secret-password",
	})
	if code := appErrCode(t, err); code != "duplicate_username" {
		t.Errorf("error code = %q, want duplicate_username", code)
	}
}

func TestUpdateUser_EditImpliesView(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")

	out, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Pages: []PagePermissionInput{
			{Page: models.PageSchedule, CanView: false, CanEdit: true},
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if len(out.Pages) != 1 {
		t.Fatalf("expected 1 page permission, got %d", len(out.Pages))
	}
	if !out.Pages[0].CanView || !out.Pages[0].CanEdit {
		t.Errorf("edit grant must imply view: got view=%v edit=%v", out.Pages[0].CanView, out.Pages[0].CanEdit)
	}
}

func TestUpdateUser_AbsentPageIsDeleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")
	grantPage(t, db, user.ID, models.PageSchedule, true, true)
	grantPage(t, db, user.ID, models.PageSettings, true, false)

	out, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Pages: []PagePermissionInput{
			{Page: models.PageSchedule, CanView: true},
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if len(out.Pages) != 1 {
		t.Fatalf("expected 1 remaining page permission, got %d", len(out.Pages))
	}
	if out.Pages[0].Page != models.PageSchedule {
		t.Errorf("remaining page = %q, want %q", out.Pages[0].Page, models.PageSchedule)
	}
	if out.Pages[0].CanEdit {
		t.Error("can_edit should have been cleared to false")
	}
}

func TestUpdateUser_RevokeEditKeepsView(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")
	grantPage(t, db, user.ID, models.PageSchedule, true, true)

	out, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Pages: []PagePermissionInput{
			{Page: models.PageSchedule, CanView: true, CanEdit: false},
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if !out.Pages[0].CanView || out.Pages[0].CanEdit {
		t.Errorf("expected view-only, got view=%v edit=%v", out.Pages[0].CanView, out.Pages[0].CanEdit)
	}
}

func TestUpdateUser_InvalidPage(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")

	_, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Pages: []PagePermissionInput{{Page: "dashboard", CanView: true}},
	})
	if code := appErrCode(t, err); code != "invalid_page" {
		t.Errorf("error code = %q, want invalid_page", code)
	}
}

func TestUpdateUser_TeamReconciliation(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")
	alpha := createTeam(t, db, "Alpha", "alpha")
	beta := createTeam(t, db, "Beta", "beta")
	grantTeam(t, db, user.ID, alpha.ID, models.AccessRead)
	grantTeam(t, db, user.ID, beta.ID, models.AccessWrite)

	// Upgrade alpha to write, remove beta via nil level.
	out, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Teams: []TeamPermissionInput{
			{TeamID: alpha.ID, AccessLevel: strPtr(models.AccessWrite)},
			{TeamID: beta.ID, AccessLevel: nil},
		},
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if len(out.Teams) != 1 {
		t.Fatalf("expected 1 team permission, got %d", len(out.Teams))
	}
	if out.Teams[0].TeamID != alpha.ID || out.Teams[0].AccessLevel != models.AccessWrite {
		t.Errorf("got team %d level %q, want team %d level write", out.Teams[0].TeamID, out.Teams[0].AccessLevel, alpha.ID)
	}

	var count int64
	db.Model(&models.UserTeamPermission{}).Where("user_id = ? AND team_id = ?", user.ID, alpha.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one row for (user, team), got %d", count)
	}
}

func TestUpdateUser_InvalidAccessLevel(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")
	team := createTeam(t, db, "Alpha", "alpha")

	_, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Teams: []TeamPermissionInput{{TeamID: team.ID, AccessLevel: strPtr("owner")}},
	})
	if code := appErrCode(t, err); code != "invalid_access_level" {
		t.Errorf("error code = %q, want invalid_access_level", code)
	}
}

func TestUpdateUser_UnknownTeam(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")

	_, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		Teams: []TeamPermissionInput{{TeamID: 999, AccessLevel: strPtr(models.AccessRead)}},
	})
	if code := appErrCode(t, err); code != "team_not_found" {
		t.Errorf("error code = %q, want team_not_found", code)
	}
}

func TestUpdateUser_PasswordRotationInvalidatesSessions(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")
	db.Model(user).Update("must_change_password", true)

	_, err := svc.UpdateUser(user.ID, &UserPermissionUpdate{
		NewPassword: "rotated-password",
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	reloaded := reloadUser(t, db, user.ID)
	if reloaded.TokenVersion != user.TokenVersion+1 {
		t.Errorf("token_version = %d, want %d", reloaded.TokenVersion, user.TokenVersion+1)
	}
	if reloaded.MustChangePassword {
		t.Error("must_change_password should be cleared by rotation")
	}
	if !utils.CheckPassword("rotated-password", reloaded.Password) {
		t.Error("new password does not verify")
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)

	_, err := svc.UpdateUser(42, &UserPermissionUpdate{})
	if code := appErrCode(t, err); code != "not_found" {
		t.Errorf("error code = %q, want not_found", code)
	}
}

func TestDeleteUser_CascadesPermissions(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	user := createUser(t, db, "planner")
	team := createTeam(t, db, "Alpha", "alpha")
	grantPage(t, db, user.ID, models.PageSchedule, true, true)
	grantTeam(t, db, user.ID, team.ID, models.AccessWrite)

	if err := svc.DeleteUser(user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	var users, pagePerms, teamPerms int64
	db.Model(&models.User{}).Where("id = ?", user.ID).Count(&users)
	db.Model(&models.UserPagePermission{}).Where("user_id = ?", user.ID).Count(&pagePerms)
	db.Model(&models.UserTeamPermission{}).Where("user_id = ?", user.ID).Count(&teamPerms)

	if users != 0 || pagePerms != 0 || teamPerms != 0 {
		t.Errorf("expected full cascade, remaining: users=%d pages=%d teams=%d", users, pagePerms, teamPerms)
	}
}

func TestOverview(t *testing.T) {
	db := newTestDB(t)
	svc := NewPermissionService(db)
	createUser(t, db, "bob")
	createUser(t, db, "alice")
	createTeam(t, db, "Zeta", "zeta")
	createTeam(t, db, "Alpha", "alpha")

	overview, err := svc.Overview()
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if len(overview.Users) != 2 || overview.Users[0].Username != "alice" {
		t.Errorf("users not sorted by username: %+v", overview.Users)
	}
	if len(overview.Teams) != 2 || overview.Teams[0].Name != "Alpha" {
		t.Errorf("teams not sorted by name: %+v", overview.Teams)
	}
}
