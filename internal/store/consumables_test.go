package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/erazemk/carehub/internal/db"
	"github.com/erazemk/carehub/internal/model"
)

func TestCreateAndGetConsumable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, err := CreateConsumable(ctx, database, "Gauze", "dressing", "roll", 10)
	if err != nil {
		t.Fatalf("CreateConsumable: %v", err)
	}
	if c.Quantity != 10 {
		t.Errorf("expected quantity 10, got %d", c.Quantity)
	}
	if c.Status != model.StatusActive {
		t.Errorf("expected status active, got %q", c.Status)
	}

	got, err := GetConsumable(ctx, database, c.ID)
	if err != nil {
		t.Fatalf("GetConsumable: %v", err)
	}
	if got.Name != "Gauze" || got.Unit != "roll" {
		t.Errorf("unexpected consumable: %+v", got)
	}

	missing, err := GetConsumable(ctx, database, 9999)
	if err != nil {
		t.Fatalf("GetConsumable: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing consumable")
	}
}

func TestCreateConsumableDuplicateName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateConsumable(ctx, database, "Gauze", "", "", 1); err != nil {
		t.Fatalf("CreateConsumable: %v", err)
	}
	_, err := CreateConsumable(ctx, database, "Gauze", "", "", 5)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected duplicate error, got %v", err)
	}
}

func TestCreateConsumableRejectsNegativeStock(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := CreateConsumable(context.Background(), database, "Gauze", "", "", -1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestDebitAndCredit(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := CreateConsumable(ctx, database, "Gauze", "", "", 10)

	got, err := DebitConsumable(ctx, database, c.ID, 4)
	if err != nil {
		t.Fatalf("DebitConsumable: %v", err)
	}
	if got.Quantity != 6 {
		t.Errorf("expected 6 after debit, got %d", got.Quantity)
	}

	got, err = CreditConsumable(ctx, database, c.ID, 100)
	if err != nil {
		t.Fatalf("CreditConsumable: %v", err)
	}
	if got.Quantity != 106 {
		t.Errorf("expected 106 after credit, got %d", got.Quantity)
	}
}

func TestDebitInsufficientStockLeavesQuantity(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := CreateConsumable(ctx, database, "Gauze", "", "", 3)

	_, err := DebitConsumable(ctx, database, c.ID, 4)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 3 || stockErr.Requested != 4 || stockErr.Name != "Gauze" {
		t.Errorf("unexpected error details: %+v", stockErr)
	}

	got, _ := GetConsumable(ctx, database, c.ID)
	if got.Quantity != 3 {
		t.Errorf("expected quantity unchanged at 3, got %d", got.Quantity)
	}

	// Debiting exactly what is left empties the stock.
	got, err = DebitConsumable(ctx, database, c.ID, 3)
	if err != nil {
		t.Fatalf("DebitConsumable: %v", err)
	}
	if got.Quantity != 0 {
		t.Errorf("expected 0, got %d", got.Quantity)
	}
}

func TestDebitCreditErrors(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := CreateConsumable(ctx, database, "Gauze", "", "", 3)

	if _, err := DebitConsumable(ctx, database, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("debit missing: expected not found, got %v", err)
	}
	if _, err := CreditConsumable(ctx, database, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("credit missing: expected not found, got %v", err)
	}
	for _, qty := range []int{0, -2} {
		if _, err := DebitConsumable(ctx, database, c.ID, qty); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("debit %d: expected invalid input, got %v", qty, err)
		}
		if _, err := CreditConsumable(ctx, database, c.ID, qty); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("credit %d: expected invalid input, got %v", qty, err)
		}
	}
}

func TestCreditRejectsOverflow(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c := mustConsumable(t, database, "Gauze", 5)

	if _, err := CreditConsumable(ctx, database, c.ID, math.MaxInt64); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for overflowing credit, got %v", err)
	}
	if got := quantityOf(t, database, c.ID); got != 5 {
		t.Errorf("expected stock unchanged at 5, got %d", got)
	}

	// The row stays usable.
	if _, err := DebitConsumable(ctx, database, c.ID, 1); err != nil {
		t.Fatalf("debit after rejected credit: %v", err)
	}
	if _, _, err := ListConsumables(ctx, database, ConsumableFilter{}, model.Page{}); err != nil {
		t.Fatalf("list after rejected credit: %v", err)
	}

	// Filling up to the limit exactly is allowed, one more is not.
	got, err := CreditConsumable(ctx, database, c.ID, math.MaxInt64-4)
	if err != nil {
		t.Fatalf("credit to limit: %v", err)
	}
	if got.Quantity != math.MaxInt64 {
		t.Errorf("expected stock at max, got %d", got.Quantity)
	}
	if _, err := CreditConsumable(ctx, database, c.ID, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid input past the limit, got %v", err)
	}
	if got := quantityOf(t, database, c.ID); got != math.MaxInt64 {
		t.Errorf("expected stock still at max, got %d", got)
	}

	if _, err := CreditConsumable(ctx, database, 9999, math.MaxInt64); !errors.Is(err, ErrNotFound) {
		t.Errorf("overflowing credit of missing consumable: expected not found, got %v", err)
	}
}

func TestStockNeverNegativeOverSequence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := CreateConsumable(ctx, database, "Syringe", "", "", 5)

	ops := []struct {
		debit bool
		qty   int
	}{
		{true, 2}, {true, 4}, {false, 1}, {true, 4}, {true, 1}, {false, 3}, {true, 7}, {true, 3},
	}
	for _, op := range ops {
		if op.debit {
			DebitConsumable(ctx, database, c.ID, op.qty)
		} else {
			CreditConsumable(ctx, database, c.ID, op.qty)
		}
		got, _ := GetConsumable(ctx, database, c.ID)
		if got.Quantity < 0 {
			t.Fatalf("quantity went negative: %d", got.Quantity)
		}
	}

	// 5 -2 =3, -4 rejected, +1 =4, -4 =0, -1 rejected, +3 =3, -7 rejected, -3 =0
	got, _ := GetConsumable(ctx, database, c.ID)
	if got.Quantity != 0 {
		t.Errorf("expected final quantity 0, got %d", got.Quantity)
	}
}

func TestConcurrentDebitsSerialize(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "stock.sqlite3"))
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c, err := CreateConsumable(ctx, database, "Gauze", "", "", 10)
	if err != nil {
		t.Fatalf("CreateConsumable: %v", err)
	}

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, rejected := 0, 0

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := DebitConsumable(ctx, database, c.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 || rejected != 10 {
		t.Errorf("expected 10 succeeded and 10 rejected, got %d and %d", succeeded, rejected)
	}

	got, _ := GetConsumable(ctx, database, c.ID)
	if got.Quantity != 0 {
		t.Errorf("expected quantity 0, got %d", got.Quantity)
	}
}

func TestDeactivateConsumable(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	c, _ := CreateConsumable(ctx, database, "Gauze", "", "", 7)

	if err := DeactivateConsumable(ctx, database, c.ID); err != nil {
		t.Fatalf("DeactivateConsumable: %v", err)
	}
	got, _ := GetConsumable(ctx, database, c.ID)
	if got.Status != model.StatusInactive {
		t.Errorf("expected inactive, got %q", got.Status)
	}
	if got.Quantity != 7 {
		t.Errorf("expected quantity untouched at 7, got %d", got.Quantity)
	}

	if err := DeactivateConsumable(ctx, database, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListConsumables(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateConsumable(ctx, database, "Gauze", "", "", 1)
	CreateConsumable(ctx, database, "Bandage", "", "", 1)
	s, _ := CreateConsumable(ctx, database, "Syringe", "", "", 1)
	DeactivateConsumable(ctx, database, s.ID)

	all, total, err := ListConsumables(ctx, database, ConsumableFilter{}, model.Page{})
	if err != nil {
		t.Fatalf("ListConsumables: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 consumables, got %d (total %d)", len(all), total)
	}
	if all[0].Name != "Bandage" {
		t.Errorf("expected ordering by name, first is %q", all[0].Name)
	}

	active, total, _ := ListConsumables(ctx, database, ConsumableFilter{Status: model.StatusActive}, model.Page{})
	if total != 2 || len(active) != 2 {
		t.Errorf("expected 2 active consumables, got %d", total)
	}

	found, _, _ := ListConsumables(ctx, database, ConsumableFilter{Search: "gau"}, model.Page{})
	if len(found) != 1 || found[0].Name != "Gauze" {
		t.Errorf("expected search to find Gauze, got %+v", found)
	}

	paged, total, _ := ListConsumables(ctx, database, ConsumableFilter{}, model.Page{Number: 1, Size: 2})
	if total != 3 || len(paged) != 1 {
		t.Errorf("expected 1 item on second page of 3, got %d (total %d)", len(paged), total)
	}
}
