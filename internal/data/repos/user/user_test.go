package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/learnproof-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnproof-backend/internal/domain"
	"github.com/yungbote/learnproof-backend/internal/pkg/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{Email: "userrepo-a@example.com", FirstName: "Ada", LastName: "Lovelace"},
		{Email: "userrepo-b@example.com", FirstName: "Grace", LastName: "Hopper", Role: "admin"},
	})
	if err != nil || len(created) != 2 {
		t.Fatalf("Create: err=%v len=%d", err, len(created))
	}
	if created[0].ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}

	got, err := repo.GetByID(dbc, created[0].ID)
	if err != nil || got == nil || got.FullName() != "Ada Lovelace" {
		t.Fatalf("GetByID: err=%v got=%+v", err, got)
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID, created[1].ID, uuid.New()})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByIDs: want=2 got=%d err=%v", len(rows), err)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID (missing): err=%v got=%v", err, missing)
	}

	if empty, err := repo.Create(dbc, nil); err != nil || len(empty) != 0 {
		t.Fatalf("Create (empty): err=%v len=%d", err, len(empty))
	}
}
