package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/erazemk/carehub/internal/model"
)

const consumableColumns = `id, name, category, unit, quantity, status, created_at, updated_at`

// ConsumableFilter narrows ListConsumables. Zero values match everything.
type ConsumableFilter struct {
	Status model.Status
	Search string
}

// CreateConsumable creates a new active consumable with an initial stock level.
func CreateConsumable(ctx context.Context, db *sql.DB, name, category, unit string, quantity int) (*model.Consumable, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}
	if quantity < 0 {
		return nil, invalidInput("quantity must not be negative")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO consumables (name, category, unit, quantity) VALUES (?, ?, ?, ?)`,
		name, nullString(category), nullString(unit), quantity,
	)
	if isUniqueViolation(err) {
		return nil, &DuplicateError{Entity: "consumable", Field: "name", Value: name}
	}
	if err != nil {
		return nil, fmt.Errorf("creating consumable: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting consumable id: %w", err)
	}

	return GetConsumable(ctx, db, id)
}

// GetConsumable returns a consumable by ID.
func GetConsumable(ctx context.Context, db *sql.DB, id int64) (*model.Consumable, error) {
	c, err := scanConsumable(db.QueryRowContext(ctx,
		`SELECT `+consumableColumns+` FROM consumables WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting consumable: %w", err)
	}
	return c, nil
}

// ListConsumables returns one page of consumables ordered by name, plus the
// total number of matches.
func ListConsumables(ctx context.Context, db *sql.DB, f ConsumableFilter, page model.Page) ([]model.Consumable, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		where += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.Search != "" {
		where += ` AND LOWER(name) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.Search))
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM consumables`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting consumables: %w", err)
	}

	page = page.Normalize()
	rows, err := db.QueryContext(ctx,
		`SELECT `+consumableColumns+` FROM consumables`+where+` ORDER BY name LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing consumables: %w", err)
	}
	defer rows.Close()

	var consumables []model.Consumable
	for rows.Next() {
		c, err := scanConsumable(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning consumable: %w", err)
		}
		consumables = append(consumables, *c)
	}
	return consumables, total, rows.Err()
}

// DebitConsumable removes quantity units from stock and returns the updated
// consumable. The whole debit is rejected if stock would go negative.
func DebitConsumable(ctx context.Context, db *sql.DB, id int64, quantity int) (*model.Consumable, error) {
	if err := debit(ctx, db, id, quantity); err != nil {
		return nil, err
	}
	return GetConsumable(ctx, db, id)
}

// CreditConsumable adds quantity units to stock and returns the updated
// consumable. A credit that would push stock past math.MaxInt64 is rejected
// and leaves the quantity unchanged.
func CreditConsumable(ctx context.Context, db *sql.DB, id int64, quantity int) (*model.Consumable, error) {
	if quantity <= 0 {
		return nil, invalidInput("quantity must be positive")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE consumables SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity <= ? - ?`,
		quantity, id, int64(math.MaxInt64), quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("crediting consumable: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("crediting consumable: %w", err)
	}
	if n == 0 {
		// Nothing changed: either the consumable is missing or the sum overflows.
		c, err := GetConsumable(ctx, db, id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, &NotFoundError{Entity: "consumable", ID: id}
		}
		return nil, invalidInput(fmt.Sprintf("crediting %d to %s would overflow stock of %d", quantity, c.Name, c.Quantity))
	}

	return GetConsumable(ctx, db, id)
}

// DeactivateConsumable marks a consumable inactive. Stock is left untouched
// and usage history keeps referencing it.
func DeactivateConsumable(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE consumables SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusInactive, id,
	)
	if err != nil {
		return fmt.Errorf("deactivating consumable: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "consumable", ID: id}
	}
	return nil
}

// debit is a single compare-and-decrement, so concurrent debits of the same
// consumable serialize in the database and never lose an update.
func debit(ctx context.Context, q querier, id int64, quantity int) error {
	if quantity <= 0 {
		return invalidInput("quantity must be positive")
	}

	result, err := q.ExecContext(ctx,
		`UPDATE consumables SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND quantity >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return fmt.Errorf("debiting consumable: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("debiting consumable: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Nothing changed: either the consumable is missing or stock is short.
	var name string
	var available int
	err = q.QueryRowContext(ctx,
		`SELECT name, quantity FROM consumables WHERE id = ?`, id,
	).Scan(&name, &available)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "consumable", ID: id}
	}
	if err != nil {
		return fmt.Errorf("checking consumable stock: %w", err)
	}
	return &InsufficientStockError{ConsumableID: id, Name: name, Available: available, Requested: quantity}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsumable(row rowScanner) (*model.Consumable, error) {
	c := &model.Consumable{}
	var category, unit sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &category, &unit, &c.Quantity, &c.Status,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Category = category.String
	c.Unit = unit.String
	return c, nil
}
