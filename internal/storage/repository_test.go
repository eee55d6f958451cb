package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"costwatch/internal/core"

	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "costs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func input(date core.Date, category, amount, currency string) core.CostRecordInput {
	return core.CostRecordInput{
		Date:     date,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Currency: currency,
	}
}

func TestRepository_AddThenList(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	in := input(core.NewDate(2024, 1, 5), "food", "10.00", "USD")
	in.Description = "groceries"

	created, err := repo.Add(ctx, in)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	records, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0]
	if got.ID != created.ID {
		t.Fatalf("id = %d, want %d", got.ID, created.ID)
	}
	if got.Date.String() != "2024-01-05" || got.Category != "food" ||
		!got.Amount.Equal(in.Amount) || got.Currency != "USD" || got.Description != "groceries" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRepository_Add_UniqueIDs(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		rec, err := repo.Add(ctx, input(core.NewDate(2024, 3, 1), "misc", "1.00", "EUR"))
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if seen[rec.ID] {
			t.Fatalf("duplicate id %d", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestRepository_Add_ValidationDoesNotTouchStorage(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	bad := input(core.NewDate(2024, 1, 5), "food", "10.00", "USD")
	bad.Amount = decimal.Zero

	if _, err := repo.Add(ctx, bad); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	records, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("rejected record reached storage: %+v", records)
	}
}

func TestRepository_List_Ordering(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	// Inserted out of date order; b and c share a date so insertion order
	// breaks the tie.
	a, _ := repo.Add(ctx, input(core.NewDate(2024, 2, 10), "food", "3.00", "USD"))
	b, _ := repo.Add(ctx, input(core.NewDate(2024, 1, 20), "food", "1.00", "USD"))
	c, _ := repo.Add(ctx, input(core.NewDate(2024, 1, 20), "transport", "2.00", "USD"))

	records, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantOrder := []int64{b.ID, c.ID, a.ID}
	if len(records) != len(wantOrder) {
		t.Fatalf("expected %d records, got %d", len(wantOrder), len(records))
	}
	for i, want := range wantOrder {
		if records[i].ID != want {
			t.Fatalf("position %d: id = %d, want %d", i, records[i].ID, want)
		}
	}
}

func TestRepository_List_Filters(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	_, _ = repo.Add(ctx, input(core.NewDate(2024, 1, 5), "food", "10.00", "USD"))
	_, _ = repo.Add(ctx, input(core.NewDate(2024, 2, 1), "transport", "5.00", "EUR"))
	_, _ = repo.Add(ctx, input(core.NewDate(2024, 3, 15), "food", "7.50", "USD"))

	cases := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"empty filter returns all", Filter{}, 3},
		{"from", Filter{From: core.NewDate(2024, 2, 1)}, 2},
		{"to", Filter{To: core.NewDate(2024, 2, 1)}, 2},
		{"window", Filter{From: core.NewDate(2024, 1, 10), To: core.NewDate(2024, 2, 28)}, 1},
		{"category", Filter{Category: "food"}, 2},
		{"category and window", Filter{Category: "food", From: core.NewDate(2024, 2, 1)}, 1},
		{"no match", Filter{Category: "rent"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := repo.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(records) != tc.want {
				t.Fatalf("got %d records, want %d", len(records), tc.want)
			}
		})
	}
}

func TestRepository_Remove(t *testing.T) {
	repo := NewRepository(openTestStore(t))
	ctx := context.Background()

	rec, err := repo.Add(ctx, input(core.NewDate(2024, 1, 5), "food", "10.00", "USD"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	ok, err := repo.Remove(ctx, rec.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !ok {
		t.Fatal("expected remove to report true for existing record")
	}

	records, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range records {
		if r.ID == rec.ID {
			t.Fatalf("record %d still listed after remove", rec.ID)
		}
	}

	ok, err = repo.Remove(ctx, rec.ID)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if ok {
		t.Fatal("expected remove to report false for missing record")
	}
}

func TestRepository_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewRepository(openTestStore(t))

	inputs := []core.CostRecordInput{
		input(core.NewDate(2024, 1, 5), "food", "10.00", "USD"),
		input(core.NewDate(2024, 1, 20), "food", "20.00", "USD"),
		input(core.NewDate(2024, 2, 1), "transport", "5.00", "EUR"),
	}
	for _, in := range inputs {
		if _, err := src.Add(ctx, in); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	exported, err := src.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := NewRepository(openTestStore(t))
	n, err := dst.Import(ctx, exported)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != len(inputs) {
		t.Fatalf("imported %d, want %d", n, len(inputs))
	}

	reexported, err := dst.Export(ctx)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if len(reexported) != len(exported) {
		t.Fatalf("record count changed: %d != %d", len(reexported), len(exported))
	}
	for i := range exported {
		a, b := exported[i], reexported[i]
		if a.Date.String() != b.Date.String() || a.Category != b.Category ||
			!a.Amount.Equal(b.Amount) || a.Currency != b.Currency || a.Description != b.Description {
			t.Fatalf("record %d mismatch: %+v != %+v", i, a, b)
		}
	}
}

func TestRepository_Import_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestStore(t))

	batch := []core.CostRecordInput{
		input(core.NewDate(2024, 1, 5), "food", "10.00", "USD"),
		input(core.NewDate(2024, 1, 6), "food", "10.00", "bad"),
	}
	if _, err := repo.Import(ctx, batch); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	records, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("partial import visible: %d records", len(records))
	}
}

func TestStore_Close_Idempotent(t *testing.T) {
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "costs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
