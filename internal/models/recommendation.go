package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecommendationRun is one persisted engine execution: the suggestions it
// produced plus enough provenance to audit why they came out that way.
type RecommendationRun struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	TeamID    int            `gorm:"not null;index:idx_team_gameweek" json:"team_id"`
	Gameweek  int            `gorm:"not null;index:idx_team_gameweek" json:"gameweek"`
	Transfers datatypes.JSON `json:"transfers"`
	Captains  datatypes.JSON `json:"captains"`
	Vice      datatypes.JSON `json:"vice,omitempty"`
	Sources   string         `json:"sources"` // comma-joined source names that answered
	CreatedAt time.Time      `json:"created_at"`
}

func (RecommendationRun) TableName() string {
	return "recommendation_runs"
}

func (r *RecommendationRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
