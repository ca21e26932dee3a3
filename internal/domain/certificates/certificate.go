package certificates

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// CourseCertificate and TrainingCertificate live in disjoint tables; each is
// unique per (user, subject) and never updated after insert.
type CourseCertificate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_certificate_pair,priority:1" json:"user_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_course_certificate_pair,priority:2" json:"course_id"`
	Hash      string    `gorm:"size:16;not null;uniqueIndex" json:"hash"`
	Signature string    `gorm:"size:64;not null" json:"-"`
	Score     float64   `gorm:"not null" json:"score"`
	PDFURL    string    `gorm:"column:pdf_url;not null" json:"pdf_url"`
	IssueDate time.Time `gorm:"column:issue_date;not null" json:"issue_date"`
}

func (CourseCertificate) TableName() string { return "course_certificate" }

func (c *CourseCertificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type TrainingCertificate struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_training_certificate_pair,priority:1" json:"user_id"`
	TrainingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_training_certificate_pair,priority:2" json:"training_id"`
	Hash       string    `gorm:"size:16;not null;uniqueIndex" json:"hash"`
	Signature  string    `gorm:"size:64;not null" json:"-"`
	Score      float64   `gorm:"not null" json:"score"`
	PDFURL     string    `gorm:"column:pdf_url;not null" json:"pdf_url"`
	IssueDate  time.Time `gorm:"column:issue_date;not null" json:"issue_date"`
}

func (TrainingCertificate) TableName() string { return "training_certificate" }

func (c *TrainingCertificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Certificate is the kind-agnostic view services work with.
type Certificate struct {
	ID        uuid.UUID           `json:"id"`
	Kind      catalog.SubjectKind `json:"kind"`
	UserID    uuid.UUID           `json:"user_id"`
	SubjectID uuid.UUID           `json:"subject_id"`
	Hash      string              `json:"hash"`
	Signature string              `json:"-"`
	Score     float64             `json:"score"`
	PDFURL    string              `json:"pdf_url"`
	IssueDate time.Time           `json:"issue_date"`
}

func FromCourse(c *CourseCertificate) *Certificate {
	if c == nil {
		return nil
	}
	return &Certificate{
		ID:        c.ID,
		Kind:      catalog.SubjectCourse,
		UserID:    c.UserID,
		SubjectID: c.CourseID,
		Hash:      c.Hash,
		Signature: c.Signature,
		Score:     c.Score,
		PDFURL:    c.PDFURL,
		IssueDate: c.IssueDate,
	}
}

func FromTraining(c *TrainingCertificate) *Certificate {
	if c == nil {
		return nil
	}
	return &Certificate{
		ID:        c.ID,
		Kind:      catalog.SubjectTraining,
		UserID:    c.UserID,
		SubjectID: c.TrainingID,
		Hash:      c.Hash,
		Signature: c.Signature,
		Score:     c.Score,
		PDFURL:    c.PDFURL,
		IssueDate: c.IssueDate,
	}
}
