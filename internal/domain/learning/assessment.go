package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

type AssessmentKind string

const (
	AssessmentQuiz AssessmentKind = "quiz"
	AssessmentExam AssessmentKind = "exam"
)

// Assessment is a gradable quiz or exam attached to a course or training.
type Assessment struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Kind         AssessmentKind      `gorm:"not null" json:"kind"`
	SubjectKind  catalog.SubjectKind `gorm:"column:subject_kind;not null;index:idx_assessment_subject,priority:1" json:"subject_kind"`
	SubjectID    uuid.UUID           `gorm:"type:uuid;not null;index:idx_assessment_subject,priority:2" json:"subject_id"`
	Title        string              `gorm:"not null" json:"title"`
	PassingScore float64             `gorm:"column:passing_score;not null" json:"passing_score"`
	IsFinal      bool                `gorm:"column:is_final;not null;default:false" json:"is_final"`
	CreatedAt    time.Time           `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Assessment) TableName() string { return "assessment" }

func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IssuesCertificate reports whether passing this assessment earns a certificate.
func (a *Assessment) IssuesCertificate() bool {
	return a != nil && a.Kind == AssessmentExam && a.IsFinal
}

type Question struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"assessment_id"`
	Index        int            `gorm:"column:index;not null" json:"index"`
	Prompt       string         `gorm:"not null" json:"prompt"`
	Answers      []AnswerOption `gorm:"foreignKey:QuestionID;references:ID" json:"answers,omitempty"`
}

func (Question) TableName() string { return "assessment_question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type AnswerOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Text       string    `gorm:"not null" json:"text"`
	IsCorrect  bool      `gorm:"column:is_correct;not null;default:false" json:"-"`
}

func (AnswerOption) TableName() string { return "assessment_answer" }

func (o *AnswerOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
