package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/carehub/internal/db"
)

func TestProcedures(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	dressing, err := CreateProcedure(ctx, database, "Wound dressing")
	if err != nil {
		t.Fatalf("CreateProcedure: %v", err)
	}
	CreateProcedure(ctx, database, "Blood pressure check")

	if _, err := CreateProcedure(ctx, database, " "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}

	list, err := ListProcedures(ctx, database)
	if err != nil {
		t.Fatalf("ListProcedures: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Blood pressure check" {
		t.Fatalf("unexpected procedures: %+v", list)
	}

	if err := DeactivateProcedure(ctx, database, dressing.ID); err != nil {
		t.Fatalf("DeactivateProcedure: %v", err)
	}
	list, _ = ListProcedures(ctx, database)
	if len(list) != 1 {
		t.Errorf("expected 1 active procedure, got %d", len(list))
	}

	if err := DeactivateProcedure(ctx, database, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
