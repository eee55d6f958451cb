package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"costwatch/internal/core"

	"github.com/shopspring/decimal"
)

// Repository provides typed CRUD over cost records using a Store.
type Repository struct {
	store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{store: store}
}

// Filter narrows a List call. Zero-value fields are ignored; an empty filter
// matches all records.
type Filter struct {
	From     core.Date
	To       core.Date
	Category string
}

// Add validates the input, persists it and returns the stored record with
// its assigned id. The write is durably committed before Add returns.
func (r *Repository) Add(ctx context.Context, in core.CostRecordInput) (core.CostRecord, error) {
	if err := in.Validate(); err != nil {
		return core.CostRecord{}, err
	}

	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO costs (date, category, amount, currency, description)
		 VALUES (?, ?, ?, ?, ?)`,
		in.Date.String(), in.Category, in.Amount.String(), in.Currency, in.Description)
	if err != nil {
		return core.CostRecord{}, fmt.Errorf("insert cost: %w", translateErr(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.CostRecord{}, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Cost record saved",
		"id", id,
		"date", in.Date.String(),
		"category", in.Category,
		"amount", in.Amount.String(),
		"currency", in.Currency)

	return core.CostRecord{
		ID:          id,
		Date:        in.Date,
		Category:    in.Category,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Description: in.Description,
	}, nil
}

// List returns records matching the filter, ordered by date ascending and by
// insertion order for same-date ties.
func (r *Repository) List(ctx context.Context, f Filter) ([]core.CostRecord, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.String())
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}

	query := `SELECT id, date, category, amount, currency, description FROM costs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query costs: %w", translateErr(err))
	}
	defer rows.Close()

	var records []core.CostRecord
	for rows.Next() {
		var (
			rec       core.CostRecord
			dateStr   string
			amountStr string
		)
		if err := rows.Scan(&rec.ID, &dateStr, &rec.Category, &amountStr, &rec.Currency, &rec.Description); err != nil {
			return nil, fmt.Errorf("scan cost row: %w", err)
		}
		if rec.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("stored date %q: %w", dateStr, err)
		}
		if rec.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("stored amount %q: %w", amountStr, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate costs: %w", translateErr(err))
	}

	return records, nil
}

// Remove deletes a record by id. It returns true if a record existed; a
// missing id is not an error.
func (r *Repository) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM costs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete cost %d: %w", id, translateErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Cost record deleted", "id", id)
	}
	return n > 0, nil
}

// Export returns the full record set without ids, suitable for re-import.
func (r *Repository) Export(ctx context.Context) ([]core.CostRecordInput, error) {
	records, err := r.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	inputs := make([]core.CostRecordInput, len(records))
	for i, rec := range records {
		inputs[i] = rec.Input()
	}
	return inputs, nil
}

// Import validates and inserts the given inputs in one transaction, assigning
// fresh ids. Either all records import or none do.
func (r *Repository) Import(ctx context.Context, inputs []core.CostRecordInput) (int, error) {
	for _, in := range inputs {
		if err := in.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", translateErr(err))
	}
	defer tx.Rollback()

	for _, in := range inputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO costs (date, category, amount, currency, description)
			 VALUES (?, ?, ?, ?, ?)`,
			in.Date.String(), in.Category, in.Amount.String(), in.Currency, in.Description); err != nil {
			return 0, fmt.Errorf("import cost: %w", translateErr(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", translateErr(err))
	}

	slog.InfoContext(ctx, "Cost records imported", "count", len(inputs))
	return len(inputs), nil
}
