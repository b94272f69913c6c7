package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/models"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/internal/utils"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

const (
	ContextUser     = "current_user"
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// AuthRequired validates the bearer token and loads the user fresh from
// the database on every request. A token whose version no longer matches
// the stored token_version is rejected, which is how password rotation
// invalidates old sessions immediately.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		var user models.User
		err = db.Preload("PagePermissions").Preload("TeamPermissions.Team").
			First(&user, claims.UserID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.Unauthorized(c, "account no longer exists")
			} else {
				response.Error(c, err)
			}
			c.Abort()
			return
		}

		if !user.IsActive || user.TokenVersion != claims.TokenVersion {
			response.Unauthorized(c, "session has been invalidated")
			c.Abort()
			return
		}

		c.Set(ContextUser, &user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)

		c.Next()
	}
}

// PagePermission gates a route on the caller's capability for a page.
// With requireEdit=false a view-capable user passes; with requireEdit=true
// the user must hold the edit capability as well.
func PagePermission(page string, requireEdit bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			response.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}
		if err := services.PageAccess(user, page, requireEdit); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUser returns the authenticated user loaded by AuthRequired.
func GetUser(c *gin.Context) *models.User {
	if v, exists := c.Get(ContextUser); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		return id.(uint)
	}
	return 0
}

// GetUsername gets the current username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}
