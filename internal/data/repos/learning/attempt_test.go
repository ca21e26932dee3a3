package learning

import (
	"context"
	"testing"

	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
	"gorm.io/datatypes"
)

func TestAttemptRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAttemptRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "attemptrepo@example.com")
	course := testutil.SeedCourse(t, ctx, tx, nil)
	exam, _ := testutil.SeedAssessment(t, ctx, tx, types.SubjectCourse, course.ID, types.AssessmentExam, true, 70, []int{0})
	quiz, _ := testutil.SeedAssessment(t, ctx, tx, types.SubjectCourse, course.ID, types.AssessmentQuiz, false, 50, []int{0})

	if passed, err := repo.HasPassed(dbc, u.ID, exam.ID); err != nil || passed {
		t.Fatalf("HasPassed (empty): err=%v passed=%v", err, passed)
	}

	for _, a := range []*types.Attempt{
		{UserID: u.ID, AssessmentID: exam.ID, Answers: datatypes.JSON([]byte("[]")), Score: 40, Passed: false},
		{UserID: u.ID, AssessmentID: exam.ID, Answers: datatypes.JSON([]byte("[]")), Score: 80, Passed: true},
		{UserID: u.ID, AssessmentID: exam.ID, Answers: datatypes.JSON([]byte("[]")), Score: 95.5, Passed: true},
		{UserID: u.ID, AssessmentID: quiz.ID, Answers: datatypes.JSON([]byte("[]")), Score: 100, Passed: true},
	} {
		if err := repo.Create(dbc, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	rows, err := repo.ListByUserAndAssessment(dbc, u.ID, exam.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListByUserAndAssessment: err=%v len=%d", err, len(rows))
	}
	if passed, err := repo.HasPassed(dbc, u.ID, exam.ID); err != nil || !passed {
		t.Fatalf("HasPassed: err=%v passed=%v", err, passed)
	}

	best, err := repo.BestPassingForSubject(dbc, u.ID, types.SubjectCourse, course.ID)
	if err != nil || best == nil {
		t.Fatalf("BestPassingForSubject: err=%v best=%v", err, best)
	}
	if best.Score != 95.5 || best.AssessmentID != exam.ID {
		t.Fatalf("best attempt: want=95.5 on exam got=%v on %v", best.Score, best.AssessmentID)
	}
}
