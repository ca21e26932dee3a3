package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:             uuid.New(),
		Email:          email,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		DocumentNumber: "1234567",
		Role:           "learner",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedOrganization(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Organization {
	tb.Helper()
	o := &types.Organization{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed organization: %v", err)
	}
	return o
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID *uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          "Intro to Safety",
		DurationHours:  12,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedTraining(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID) *types.Training {
	tb.Helper()
	t := &types.Training{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          "Forklift Operation",
		DurationHours:  8,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed training: %v", err)
	}
	return t
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind types.SubjectKind, subjectID uuid.UUID, status types.EnrollmentStatus) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:          uuid.New(),
		UserID:      userID,
		SubjectKind: kind,
		SubjectID:   subjectID,
		Status:      status,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, kind types.SubjectKind, subjectID uuid.UUID, index int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:          uuid.New(),
		SubjectKind: kind,
		SubjectID:   subjectID,
		Index:       index,
		Title:       fmt.Sprintf("Lesson %d", index+1),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

// SeedAssessment creates an assessment with one question per entry of
// correct; correct[i] is the index of the right option among three.
func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, kind types.SubjectKind, subjectID uuid.UUID, assessmentKind types.AssessmentKind, final bool, passing float64, correct []int) (*types.Assessment, []*types.Question) {
	tb.Helper()
	a := &types.Assessment{
		ID:           uuid.New(),
		Kind:         assessmentKind,
		SubjectKind:  kind,
		SubjectID:    subjectID,
		Title:        "Final exam",
		PassingScore: passing,
		IsFinal:      final,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	questions := make([]*types.Question, 0, len(correct))
	for i, right := range correct {
		q := &types.Question{
			ID:           uuid.New(),
			AssessmentID: a.ID,
			Index:        i,
			Prompt:       fmt.Sprintf("Question %d", i+1),
		}
		for j := 0; j < 3; j++ {
			q.Answers = append(q.Answers, types.AnswerOption{
				ID:         uuid.New(),
				QuestionID: q.ID,
				Text:       fmt.Sprintf("Option %d", j+1),
				IsCorrect:  j == right,
			})
		}
		if err := tx.WithContext(ctx).Create(q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		questions = append(questions, q)
	}
	return a, questions
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, assessmentID uuid.UUID, score float64, passed bool) *types.Attempt {
	tb.Helper()
	at := &types.Attempt{
		ID:           uuid.New(),
		UserID:       userID,
		AssessmentID: assessmentID,
		Answers:      datatypes.JSON([]byte("[]")),
		Score:        score,
		Passed:       passed,
	}
	if err := tx.WithContext(ctx).Create(at).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return at
}

func SeedCertificate(tb testing.TB, ctx context.Context, tx *gorm.DB, kind types.SubjectKind, userID, subjectID uuid.UUID, hash string) {
	tb.Helper()
	now := time.Now().UTC()
	var row any
	switch kind {
	case types.SubjectCourse:
		row = &types.CourseCertificate{ID: uuid.New(), UserID: userID, CourseID: subjectID, Hash: hash, Signature: "sig", Score: 90, PDFURL: "https://cdn/x.pdf", IssueDate: now}
	default:
		row = &types.TrainingCertificate{ID: uuid.New(), UserID: userID, TrainingID: subjectID, Hash: hash, Signature: "sig", Score: 90, PDFURL: "https://cdn/x.pdf", IssueDate: now}
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed certificate: %v", err)
	}
}
