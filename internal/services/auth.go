package services

import (
	"errors"
	"time"

	"github.com/takumin/shiftboard/internal/config"
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/utils"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtConfig *config.JWTConfig
}

func NewAuthService(db *gorm.DB, jwtCfg *config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwtConfig: jwtCfg}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult carries the issued token, or must_change_password=true and
// no token when the account still has a provisional password.
type LoginResult struct {
	Token              string               `json:"token,omitempty"`
	ExpireAt           *time.Time           `json:"expire_at,omitempty"`
	MustChangePassword bool                 `json:"must_change_password"`
	User               *UserWithPermissions `json:"user,omitempty"`
}

type FirstLoginRequest struct {
	Username        string `json:"username" binding:"required"`
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func (s *AuthService) findByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Preload("PagePermissions").Preload("TeamPermissions.Team").
		Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewUnauthenticated()
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, time.Time, error) {
	token, err := utils.GenerateToken(user.ID, user.Username, user.TokenVersion, s.jwtConfig.ExpireHour)
	if err != nil {
		return "", time.Time{}, err
	}
	expireAt := time.Now().Add(time.Duration(s.jwtConfig.ExpireHour) * time.Hour)
	return token, expireAt, nil
}

// Login authenticates a user. An account flagged must_change_password gets
// no token; the client must complete FirstLogin instead.
func (s *AuthService) Login(req *LoginRequest) (*LoginResult, error) {
	user, err := s.findByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !utils.CheckPassword(req.Password, user.Password) {
		return nil, response.NewUnauthenticated()
	}

	if user.MustChangePassword {
		return &LoginResult{MustChangePassword: true}, nil
	}

	token, expireAt, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpireAt: &expireAt, User: serializeUser(user)}, nil
}

// FirstLogin completes the forced password change: it verifies the
// provisional password, stores the new hash, clears the flag, bumps
// token_version and issues the first real session token.
func (s *AuthService) FirstLogin(req *FirstLoginRequest) (*LoginResult, error) {
	user, err := s.findByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewUnauthenticated()
	}
	if !user.MustChangePassword {
		return nil, response.NewInvalidInput("invalid_state")
	}
	if !utils.CheckPassword(req.CurrentPassword, user.Password) {
		return nil, response.NewUnauthenticated()
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	user.TokenVersion++
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"password":             hash,
		"must_change_password": false,
		"token_version":        user.TokenVersion,
	}).Error; err != nil {
		return nil, err
	}
	user.MustChangePassword = false

	token, expireAt, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpireAt: &expireAt, User: serializeUser(user)}, nil
}

// ChangePassword rotates the caller's own password. The token_version bump
// invalidates every other session; the returned token is the only one that
// stays valid.
func (s *AuthService) ChangePassword(user *models.User, newPassword string) (*LoginResult, error) {
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	user.TokenVersion++
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"password":             hash,
		"must_change_password": false,
		"token_version":        user.TokenVersion,
	}).Error; err != nil {
		return nil, err
	}
	user.MustChangePassword = false

	token, expireAt, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpireAt: &expireAt, User: serializeUser(user)}, nil
}

// GetUserByID reloads a user with resolved permissions.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	return loadUserWithPermissions(s.db, id)
}

// CreateAdminIfNotExists bootstraps the admin account with a provisional
// password, full page capability and write access to every existing team.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	s.db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin")
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		admin := models.User{
			Username:           "admin",
			DisplayName:        "超级管理员",
			Password:           hash,
			MustChangePassword: true,
			IsActive:           true,
			TokenVersion:       1,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		for page := range models.ValidPages {
			perm := models.UserPagePermission{UserID: admin.ID, Page: page, CanView: true, CanEdit: true}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}

		var teams []models.Team
		if err := tx.Find(&teams).Error; err != nil {
			return err
		}
		for _, team := range teams {
			perm := models.UserTeamPermission{UserID: admin.ID, TeamID: team.ID, AccessLevel: models.AccessWrite}
			if err := tx.Create(&perm).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
