package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEnrollmentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "enrollmentrepo@example.com")
	course := testutil.SeedCourse(t, ctx, tx, nil)

	if got, err := repo.GetForSubject(dbc, u.ID, types.SubjectCourse, course.ID); err != nil || got != nil {
		t.Fatalf("GetForSubject (missing): err=%v got=%v", err, got)
	}

	rows, err := repo.Create(dbc, []*types.Enrollment{{
		UserID:      u.ID,
		SubjectKind: types.SubjectCourse,
		SubjectID:   course.ID,
		Status:      types.EnrollmentPending,
	}})
	if err != nil || len(rows) != 1 || rows[0].ID == uuid.Nil {
		t.Fatalf("Create: err=%v rows=%v", err, rows)
	}

	got, err := repo.GetForSubject(dbc, u.ID, types.SubjectCourse, course.ID)
	if err != nil || got == nil || got.Approved() {
		t.Fatalf("GetForSubject: err=%v got=%+v", err, got)
	}

	if err := repo.UpdateStatus(dbc, got.ID, types.EnrollmentApproved); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err = repo.GetForSubject(dbc, u.ID, types.SubjectCourse, course.ID)
	if err != nil || !got.Approved() {
		t.Fatalf("GetForSubject (approved): err=%v got=%+v", err, got)
	}
}
