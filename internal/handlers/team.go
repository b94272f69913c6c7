package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/takumin/shiftboard/internal/middleware"
	"github.com/takumin/shiftboard/internal/services"
	"github.com/takumin/shiftboard/pkg/response"
	"gorm.io/gorm"
)

type TeamHandler struct {
	db *gorm.DB
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{db: db}
}

// List returns the teams the caller can see, with their access level.
// A user with no team permission row for a team does not see it at all.
// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		response.Unauthorized(c, "authentication required")
		return
	}

	teams := make([]services.TeamOut, 0, len(user.TeamPermissions))
	for _, perm := range user.TeamPermissions {
		if perm.Team == nil {
			continue
		}
		level := perm.AccessLevel
		teams = append(teams, services.TeamOut{
			ID:          perm.Team.ID,
			Name:        perm.Team.Name,
			Code:        perm.Team.Code,
			Description: perm.Team.Description,
			AccessLevel: &level,
		})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })

	response.Success(c, teams)
}
