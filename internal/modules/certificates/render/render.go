// Package render turns certificate fields into PDF bytes, either by merging
// an uploaded DOCX template and converting it, or by synthesizing an HTML
// page and printing it with a headless browser.
package render

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperr "github.com/yungbote/learnproof-backend/internal/pkg/errors"
)

// Fields are the values printed on a certificate.
type Fields struct {
	LearnerName    string
	DocumentNumber string
	SubjectTitle   string
	DurationHours  int
	CompletionDate time.Time
	Score          float64
	Hash           string
	VerifyURL      string
}

const completionDateLayout = "January 2, 2006"

// Values maps merge-field names to their printed form. Several aliases are
// accepted so templates authored for courses and trainings both resolve.
func (f Fields) Values() map[string]string {
	date := ""
	if !f.CompletionDate.IsZero() {
		date = f.CompletionDate.UTC().Format(completionDateLayout)
	}
	score := strconv.FormatFloat(f.Score, 'f', 1, 64)
	duration := strconv.Itoa(f.DurationHours)
	return map[string]string{
		"learner_name":     f.LearnerName,
		"full_name":        f.LearnerName,
		"name":             f.LearnerName,
		"document_number":  f.DocumentNumber,
		"subject_title":    f.SubjectTitle,
		"course_title":     f.SubjectTitle,
		"training_title":   f.SubjectTitle,
		"title":            f.SubjectTitle,
		"duration_hours":   duration,
		"duration":         duration,
		"completion_date":  date,
		"date":             date,
		"score":            score,
		"hash":             f.Hash,
		"certificate_hash": f.Hash,
		"verify_url":       f.VerifyURL,
	}
}

// Converter turns a DOCX document into a PDF.
type Converter interface {
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// Browser prints a self-contained HTML document to PDF.
type Browser interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// RenderError covers every way producing a PDF can fail: converter or
// browser timeout, non-zero exit, missing or empty output, unreadable template.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return "render " + e.Stage + " failed"
	}
	return fmt.Sprintf("render %s failed: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) ErrorKind() apperr.Kind { return apperr.KindRender }

func Errorf(stage, format string, args ...any) *RenderError {
	return &RenderError{Stage: stage, Err: fmt.Errorf(format, args...)}
}

// Wrap returns err as a RenderError, leaving existing ones untouched.
func Wrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	if re, ok := err.(*RenderError); ok {
		return re
	}
	return &RenderError{Stage: stage, Err: err}
}
