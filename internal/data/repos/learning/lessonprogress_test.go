package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
)

func TestLessonProgressRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLessonProgressRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "lessonprogressrepo@example.com")
	course := testutil.SeedCourse(t, ctx, tx, nil)
	l1 := testutil.SeedLesson(t, ctx, tx, types.SubjectCourse, course.ID, 0)
	l2 := testutil.SeedLesson(t, ctx, tx, types.SubjectCourse, course.ID, 1)
	other := testutil.SeedCourse(t, ctx, tx, nil)
	otherLesson := testutil.SeedLesson(t, ctx, tx, types.SubjectCourse, other.ID, 0)

	first := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	if err := repo.MarkCompleted(dbc, u.ID, l1.ID, first); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if err := repo.MarkCompleted(dbc, u.ID, l1.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkCompleted (again): %v", err)
	}
	if err := repo.MarkCompleted(dbc, u.ID, otherLesson.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkCompleted (other subject): %v", err)
	}

	rows, err := repo.GetByUserAndLessonIDs(dbc, u.ID, []uuid.UUID{l1.ID, l2.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserAndLessonIDs: err=%v len=%d", err, len(rows))
	}
	if !rows[0].Completed || rows[0].CompletedAt == nil {
		t.Fatalf("expected completed row, got %+v", rows[0])
	}
	if !rows[0].CompletedAt.UTC().Equal(first) {
		t.Fatalf("completed_at: want=%v got=%v", first, rows[0].CompletedAt.UTC())
	}

	n, err := repo.CountCompletedForSubject(dbc, u.ID, types.SubjectCourse, course.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountCompletedForSubject: err=%v n=%d", err, n)
	}
}
