package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Attempt records one graded submission. Rows are never updated.
type Attempt struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_attempt_user_assessment,priority:1" json:"user_id"`
	AssessmentID uuid.UUID      `gorm:"type:uuid;not null;index:idx_attempt_user_assessment,priority:2" json:"assessment_id"`
	Answers      datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`
	Score        float64        `gorm:"not null" json:"score"`
	Passed       bool           `gorm:"not null" json:"passed"`
	CreatedAt    time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Attempt) TableName() string { return "assessment_attempt" }

func (a *Attempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
