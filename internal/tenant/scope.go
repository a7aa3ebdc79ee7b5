package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForTeam returns a GORM scope that filters by team_id.
func ForTeam(teamID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("team_id = ?", teamID)
	}
}
