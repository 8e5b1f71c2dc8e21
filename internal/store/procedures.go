package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/carehub/internal/model"
)

// CreateProcedure creates a new active procedure.
func CreateProcedure(ctx context.Context, db *sql.DB, name string) (*model.Procedure, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}

	result, err := db.ExecContext(ctx, `INSERT INTO procedures (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating procedure: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting procedure id: %w", err)
	}
	return GetProcedure(ctx, db, id)
}

// GetProcedure returns a procedure by ID.
func GetProcedure(ctx context.Context, db *sql.DB, id int64) (*model.Procedure, error) {
	p := &model.Procedure{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at FROM procedures WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting procedure: %w", err)
	}
	return p, nil
}

// ListProcedures returns all active procedures ordered by name.
func ListProcedures(ctx context.Context, db *sql.DB) ([]model.Procedure, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, status, created_at FROM procedures WHERE status = ? ORDER BY name`,
		model.StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("listing procedures: %w", err)
	}
	defer rows.Close()

	var procedures []model.Procedure
	for rows.Next() {
		var p model.Procedure
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning procedure: %w", err)
		}
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

// DeactivateProcedure hides a procedure from new reports.
func DeactivateProcedure(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE procedures SET status = ? WHERE id = ?`, model.StatusInactive, id,
	)
	if err != nil {
		return fmt.Errorf("deactivating procedure: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "procedure", ID: id}
	}
	return nil
}
