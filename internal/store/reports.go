package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/carehub/internal/model"
)

// VisitReport is a volunteer's account of a visit.
type VisitReport struct {
	VisitID      int64
	ProcedureIDs []int64
	Consumables  []model.UsageLine
	Status       model.VisitStatus
	Notes        string
	SubmittedBy  int64
}

// SubmitVisitReport records the outcome of a visit in one transaction:
// the procedure set and usage lines are replaced, every line is debited
// from stock in order, and the visit is finished with today's completion
// date. If any step fails nothing is kept, neither earlier debits nor the
// visit changes.
//
// Unknown procedure IDs are ignored. Usage lines of an earlier report are
// discarded without crediting their quantities back, so a resubmission
// debits stock again.
func SubmitVisitReport(ctx context.Context, db *sql.DB, r VisitReport) (*model.Visit, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current model.VisitStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM visits WHERE id = ?`, r.VisitID).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "visit", ID: r.VisitID}
	}
	if err != nil {
		return nil, fmt.Errorf("getting visit: %w", err)
	}

	if !current.CanTransitionTo(r.Status) {
		return nil, fmt.Errorf("%w: %s to %q", ErrInvalidTransition, current, r.Status)
	}

	if err := replaceVisitProcedures(ctx, tx, r.VisitID, r.ProcedureIDs); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM visit_consumables WHERE visit_id = ?`, r.VisitID); err != nil {
		return nil, fmt.Errorf("clearing visit consumables: %w", err)
	}
	for _, line := range r.Consumables {
		if err := debit(ctx, tx, line.ConsumableID, line.Quantity); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO visit_consumables (visit_id, consumable_id, quantity) VALUES (?, ?, ?)`,
			r.VisitID, line.ConsumableID, line.Quantity,
		); err != nil {
			return nil, fmt.Errorf("recording consumable usage: %w", err)
		}
	}

	var submittedBy sql.NullInt64
	if r.SubmittedBy > 0 {
		submittedBy = sql.NullInt64{Int64: r.SubmittedBy, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE visits SET status = ?, completed_date = ?, notes = ?, submitted_by = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		r.Status, today(), nullString(r.Notes), submittedBy, r.VisitID,
	); err != nil {
		return nil, fmt.Errorf("updating visit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing report: %w", err)
	}

	return GetVisit(ctx, db, r.VisitID)
}

func replaceVisitProcedures(ctx context.Context, tx *sql.Tx, visitID int64, procedureIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM visit_procedures WHERE visit_id = ?`, visitID); err != nil {
		return fmt.Errorf("clearing visit procedures: %w", err)
	}

	for _, id := range procedureIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO visit_procedures (visit_id, procedure_id)
			 SELECT ?, id FROM procedures WHERE id = ?`,
			visitID, id,
		); err != nil {
			return fmt.Errorf("recording visit procedure: %w", err)
		}
	}
	return nil
}
