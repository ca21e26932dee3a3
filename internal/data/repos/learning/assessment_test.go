package learning

import (
	"context"
	"testing"

	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
)

func TestAssessmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssessmentRepo(db, testutil.Logger(t))

	course := testutil.SeedCourse(t, ctx, tx, nil)
	exam, _ := testutil.SeedAssessment(t, ctx, tx, types.SubjectCourse, course.ID, types.AssessmentExam, true, 70, []int{2, 0, 1})
	testutil.SeedAssessment(t, ctx, tx, types.SubjectCourse, course.ID, types.AssessmentQuiz, false, 50, []int{0})

	got, err := repo.GetByID(dbc, exam.ID)
	if err != nil || got == nil || got.PassingScore != 70 {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}
	if !got.IssuesCertificate() {
		t.Fatalf("expected final exam to issue certificates")
	}

	finals, err := repo.GetFinalForSubject(dbc, types.SubjectCourse, course.ID)
	if err != nil || len(finals) != 1 || finals[0].ID != exam.ID {
		t.Fatalf("GetFinalForSubject: err=%v len=%d", err, len(finals))
	}

	questions, err := repo.GetQuestionsWithAnswers(dbc, exam.ID)
	if err != nil || len(questions) != 3 {
		t.Fatalf("GetQuestionsWithAnswers: err=%v len=%d", err, len(questions))
	}
	for i, q := range questions {
		if q.Index != i {
			t.Fatalf("question order: want=%d got=%d", i, q.Index)
		}
		if len(q.Answers) != 3 {
			t.Fatalf("answers preload: want=3 got=%d", len(q.Answers))
		}
	}
}
