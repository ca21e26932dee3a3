package certificates

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/domain/catalog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is an uploaded DOCX with {{field}} placeholders. Scope is one of:
// subject-specific (SubjectID set), organization (OrganizationID set), or
// platform-wide (neither set).
type Template struct {
	ID             uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string               `gorm:"not null" json:"name"`
	StorageKey     string               `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL        string               `gorm:"column:file_url;not null" json:"file_url"`
	Fields         datatypes.JSON       `gorm:"type:jsonb;column:fields" json:"fields"`
	IsDefault      bool                 `gorm:"column:is_default;not null;default:false;index" json:"is_default"`
	SubjectKind    *catalog.SubjectKind `gorm:"column:subject_kind" json:"subject_kind,omitempty"`
	SubjectID      *uuid.UUID           `gorm:"type:uuid;index" json:"subject_id,omitempty"`
	OrganizationID *uuid.UUID           `gorm:"type:uuid;index" json:"organization_id,omitempty"`
	CreatedAt      time.Time            `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Template) TableName() string { return "certificate_template" }

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
