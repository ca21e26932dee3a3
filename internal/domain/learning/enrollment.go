package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "PENDING"
	EnrollmentApproved EnrollmentStatus = "APPROVED"
	EnrollmentRejected EnrollmentStatus = "REJECTED"
)

type Enrollment struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_subject,priority:1" json:"user_id"`
	SubjectKind catalog.SubjectKind `gorm:"column:subject_kind;not null;uniqueIndex:idx_enrollment_subject,priority:2" json:"subject_kind"`
	SubjectID   uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_subject,priority:3" json:"subject_id"`
	Status      EnrollmentStatus    `gorm:"not null;default:PENDING" json:"status"`
	CreatedAt   time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Enrollment) Approved() bool {
	return e != nil && e.Status == EnrollmentApproved
}
