package services

import (
	"errors"
	"sort"

	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/utils"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

// PermissionService reconciles a user's desired page/team permission set
// against the stored set. User creation runs the same reconciliation right
// after the insert, so both paths share one validation contract.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

type PagePermissionInput struct {
	Page    string `json:"page" binding:"required"`
	CanView bool   `json:"can_view"`
	CanEdit bool   `json:"can_edit"`
}

// TeamPermissionInput pairs a team with a desired access level. A nil
// AccessLevel removes the permission, same as leaving the team out of the
// desired set entirely.
type TeamPermissionInput struct {
	TeamID      uint    `json:"team_id" binding:"required"`
	AccessLevel *string `json:"access_level"`
}

type UserPermissionUpdate struct {
	DisplayName *string               `json:"display_name"`
	NewPassword string                `json:"new_password"`
	Pages       []PagePermissionInput `json:"pages"`
	Teams       []TeamPermissionInput `json:"teams"`
}

type CreateUserRequest struct {
	Username           string                `json:"username" binding:"required"`
	DisplayName        string                `json:"display_name" binding:"required"`
	Password           string                `json:"password" binding:"required,min=8"`
	MustChangePassword bool                  `json:"must_change_password"`
	Pages              []PagePermissionInput `json:"pages"`
	Teams              []TeamPermissionInput `json:"teams"`
}

type PagePermissionOut struct {
	Page    string `json:"page"`
	CanView bool   `json:"can_view"`
	CanEdit bool   `json:"can_edit"`
}

type TeamPermissionOut struct {
	TeamID      uint   `json:"team_id"`
	TeamName    string `json:"team_name"`
	AccessLevel string `json:"access_level"`
}

type UserWithPermissions struct {
	ID                 uint                `json:"id"`
	Username           string              `json:"username"`
	DisplayName        string              `json:"display_name"`
	MustChangePassword bool                `json:"must_change_password"`
	IsActive           bool                `json:"is_active"`
	Pages              []PagePermissionOut `json:"pages"`
	Teams              []TeamPermissionOut `json:"teams"`
}

type TeamOut struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	AccessLevel *string `json:"access_level"`
}

type PermissionOverview struct {
	Users []UserWithPermissions `json:"users"`
	Teams []TeamOut             `json:"teams"`
}

// serializeUser flattens a user with preloaded permissions; pages sorted by
// page key, teams by team name.
func serializeUser(user *models.User) *UserWithPermissions {
	pages := make([]PagePermissionOut, 0, len(user.PagePermissions))
	for _, perm := range user.PagePermissions {
		pages = append(pages, PagePermissionOut{Page: perm.Page, CanView: perm.CanView, CanEdit: perm.CanEdit})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })

	teams := make([]TeamPermissionOut, 0, len(user.TeamPermissions))
	for _, perm := range user.TeamPermissions {
		out := TeamPermissionOut{TeamID: perm.TeamID, AccessLevel: perm.AccessLevel}
		if perm.Team != nil {
			out.TeamName = perm.Team.Name
		}
		teams = append(teams, out)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].TeamName < teams[j].TeamName })

	return &UserWithPermissions{
		ID:                 user.ID,
		Username:           user.Username,
		DisplayName:        user.DisplayName,
		MustChangePassword: user.MustChangePassword,
		IsActive:           user.IsActive,
		Pages:              pages,
		Teams:              teams,
	}
}

// Serialize exposes the flattened permission view of an already-loaded user.
func (s *PermissionService) Serialize(user *models.User) (*UserWithPermissions, error) {
	if user == nil {
		return nil, response.NewNotFound("not_found")
	}
	return serializeUser(user), nil
}

func loadUserWithPermissions(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	err := db.Preload("PagePermissions").Preload("TeamPermissions.Team").First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("not_found")
		}
		return nil, err
	}
	return &user, nil
}

// Overview returns all users with their resolved permissions plus the full
// team list, for the permission administration page.
func (s *PermissionService) Overview() (*PermissionOverview, error) {
	var users []models.User
	if err := s.db.Preload("PagePermissions").Preload("TeamPermissions.Team").
		Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	var teams []models.Team
	if err := s.db.Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}

	overview := &PermissionOverview{
		Users: make([]UserWithPermissions, 0, len(users)),
		Teams: make([]TeamOut, 0, len(teams)),
	}
	for i := range users {
		overview.Users = append(overview.Users, *serializeUser(&users[i]))
	}
	for _, team := range teams {
		overview.Teams = append(overview.Teams, TeamOut{
			ID:          team.ID,
			Name:        team.Name,
			Code:        team.Code,
			Description: team.Description,
		})
	}
	return overview, nil
}

// CreateUser inserts the user row, then applies the desired permission set
// through the same reconciliation as UpdateUser. The whole operation is one
// transaction.
func (s *PermissionService) CreateUser(req *CreateUserRequest) (*UserWithPermissions, error) {
	var created *models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
		if count > 0 {
			return response.NewConflict("duplicate_username")
		}

		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Username:           req.Username,
			DisplayName:        req.DisplayName,
			Password:           hash,
			MustChangePassword: req.MustChangePassword,
			IsActive:           true,
			TokenVersion:       1,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		update := &UserPermissionUpdate{Pages: req.Pages, Teams: req.Teams}
		created, err = s.applyUpdate(tx, user.ID, update)
		return err
	})
	if err != nil {
		return nil, err
	}
	return serializeUser(created), nil
}

// UpdateUser reconciles the desired permission set for an existing user,
// optionally renaming the display name and/or rotating the password.
func (s *PermissionService) UpdateUser(userID uint, req *UserPermissionUpdate) (*UserWithPermissions, error) {
	var updated *models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		updated, err = s.applyUpdate(tx, userID, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return serializeUser(updated), nil
}

// applyUpdate is the reconciliation core. Pages absent from the desired set
// are deleted; present ones are normalized (can_view = view OR edit, then
// can_edit = edit AND can_view) and updated in place or inserted. Team
// permissions follow the same pattern, with a nil access level acting as
// removal. A password rotation clears must_change_password and bumps
// token_version, which kills every outstanding session.
func (s *PermissionService) applyUpdate(tx *gorm.DB, userID uint, req *UserPermissionUpdate) (*models.User, error) {
	user, err := loadUserWithPermissions(tx, userID)
	if err != nil {
		return nil, err
	}

	userUpdates := map[string]interface{}{}
	if req.DisplayName != nil {
		userUpdates["display_name"] = *req.DisplayName
	}
	if req.NewPassword != "" {
		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			return nil, err
		}
		userUpdates["password"] = hash
		userUpdates["must_change_password"] = false
		userUpdates["token_version"] = user.TokenVersion + 1
	}
	if len(userUpdates) > 0 {
		if err := tx.Model(user).Updates(userUpdates).Error; err != nil {
			return nil, err
		}
	}

	// Page permissions.
	existingPages := make(map[string]*models.UserPagePermission, len(user.PagePermissions))
	for i := range user.PagePermissions {
		existingPages[user.PagePermissions[i].Page] = &user.PagePermissions[i]
	}
	desiredPages := make(map[string]bool, len(req.Pages))
	for _, item := range req.Pages {
		desiredPages[item.Page] = true
	}
	for page, perm := range existingPages {
		if !desiredPages[page] {
			if err := tx.Delete(perm).Error; err != nil {
				return nil, err
			}
		}
	}
	for _, item := range req.Pages {
		if !models.ValidPages[item.Page] {
			return nil, response.NewInvalidInput("invalid_page")
		}
		canView := item.CanView || item.CanEdit
		canEdit := item.CanEdit && canView
		if perm, ok := existingPages[item.Page]; ok {
			if err := tx.Model(perm).Updates(map[string]interface{}{
				"can_view": canView,
				"can_edit": canEdit,
			}).Error; err != nil {
				return nil, err
			}
		} else {
			perm := models.UserPagePermission{UserID: userID, Page: item.Page, CanView: canView, CanEdit: canEdit}
			if err := tx.Create(&perm).Error; err != nil {
				return nil, err
			}
		}
	}

	// Team permissions.
	existingTeams := make(map[uint]*models.UserTeamPermission, len(user.TeamPermissions))
	for i := range user.TeamPermissions {
		existingTeams[user.TeamPermissions[i].TeamID] = &user.TeamPermissions[i]
	}
	desiredTeams := make(map[uint]*string, len(req.Teams))
	for _, item := range req.Teams {
		desiredTeams[item.TeamID] = item.AccessLevel
	}
	for teamID, perm := range existingTeams {
		level, present := desiredTeams[teamID]
		if !present || level == nil {
			if err := tx.Delete(perm).Error; err != nil {
				return nil, err
			}
		}
	}
	for _, item := range req.Teams {
		if item.AccessLevel == nil {
			continue
		}
		level := *item.AccessLevel
		if level != models.AccessRead && level != models.AccessWrite {
			return nil, response.NewInvalidInput("invalid_access_level")
		}
		var team models.Team
		if err := tx.First(&team, item.TeamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewNotFound("team_not_found")
			}
			return nil, err
		}
		if perm, ok := existingTeams[item.TeamID]; ok {
			if err := tx.Model(perm).Update("access_level", level).Error; err != nil {
				return nil, err
			}
		} else {
			perm := models.UserTeamPermission{UserID: userID, TeamID: item.TeamID, AccessLevel: level}
			if err := tx.Create(&perm).Error; err != nil {
				return nil, err
			}
		}
	}

	return loadUserWithPermissions(tx, userID)
}

// DeleteUser removes a user together with its permission rows, child rows
// first, in one transaction.
func (s *PermissionService) DeleteUser(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NewNotFound("not_found")
			}
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserPagePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserTeamPermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}
