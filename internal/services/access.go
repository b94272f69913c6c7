package services

import (
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/pkg/response"
)

// Access gate: pure evaluation over a user's loaded permission rows. The
// page check and the team check are independent; operations that need both
// run the page check first (it needs no team argument) and fail fast.

// PageAccess checks the user's permission for one page. It denies when no
// permission row exists, when can_view is false, or when edit capability is
// required but can_edit is false.
func PageAccess(user *models.User, page string, requireEdit bool) error {
	for _, perm := range user.PagePermissions {
		if perm.Page != page {
			continue
		}
		if perm.CanView && (!requireEdit || perm.CanEdit) {
			return nil
		}
		break // at most one row per (user, page)
	}
	return response.NewForbidden()
}

// CanEditPage reports whether the user holds edit capability on the page.
func CanEditPage(user *models.User, page string) bool {
	for _, perm := range user.PagePermissions {
		if perm.Page == page {
			return perm.CanEdit
		}
	}
	return false
}

// TeamAccess returns the user's access level on the team when it satisfies
// minLevel. A read requirement is satisfied by read or write; a write
// requirement only by write. Absence of a permission row is always a
// denial, never an implicit default.
func TeamAccess(user *models.User, teamID uint, minLevel string) (string, error) {
	for _, perm := range user.TeamPermissions {
		if perm.TeamID != teamID {
			continue
		}
		switch minLevel {
		case models.AccessRead:
			if perm.AccessLevel == models.AccessRead || perm.AccessLevel == models.AccessWrite {
				return perm.AccessLevel, nil
			}
		case models.AccessWrite:
			if perm.AccessLevel == models.AccessWrite {
				return perm.AccessLevel, nil
			}
		}
		break // at most one row per (user, team)
	}
	return "", response.NewForbidden()
}

// ReadOnly derives the schedule view's read-only flag from the two
// permission lookups alone: write-level team access AND page edit
// capability are both required for an editable view.
func ReadOnly(teamAccessLevel string, canEditSchedule bool) bool {
	return teamAccessLevel != models.AccessWrite || !canEditSchedule
}
