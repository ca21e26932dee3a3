package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

type Lesson struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectKind catalog.SubjectKind `gorm:"column:subject_kind;not null;index:idx_lesson_subject,priority:1" json:"subject_kind"`
	SubjectID   uuid.UUID           `gorm:"type:uuid;not null;index:idx_lesson_subject,priority:2" json:"subject_id"`
	Index       int                 `gorm:"column:index;not null" json:"index"`
	Title       string              `gorm:"not null" json:"title"`
	CreatedAt   time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LessonProgress is append/update only; Completed never goes back to false.
type LessonProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:1" json:"user_id"`
	LessonID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_lesson_progress_user_lesson,priority:2" json:"lesson_id"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
