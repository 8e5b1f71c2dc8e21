package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/erazemk/carehub/internal/model"
)

const (
	visitCodePrefix   = "VIS"
	visitCodeAttempts = 10
)

const visitSelect = `SELECT v.id, v.visit_code, v.volunteer_id, v.patient_id, v.visit_date, v.completed_date,
	        v.status, v.notes, v.submitted_by, v.created_at, v.updated_at, vo.name, p.name
	 FROM visits v
	 JOIN volunteers vo ON vo.id = v.volunteer_id
	 JOIN patients p ON p.id = v.patient_id`

// VisitFilter narrows ListVisits. Zero values match everything and the
// conditions combine conjunctively.
type VisitFilter struct {
	Status      model.VisitStatus
	Dates       DateRange
	VolunteerID int64
	PatientID   int64
}

// visitCodeSuffix returns the random part of a visit code. Replaced in tests.
var visitCodeSuffix = func() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", n.Int64()), nil
}

// AssignVisits creates one pending visit per patient for the volunteer on
// visitDate. The batch is all-or-nothing: an unknown volunteer or any
// unknown or deceased patient aborts it without creating any visit. Repeated patient
// IDs get a single visit.
func AssignVisits(ctx context.Context, db *sql.DB, volunteerID int64, patientIDs []int64, visitDate time.Time) ([]model.Visit, error) {
	if len(patientIDs) == 0 {
		return nil, invalidInput("at least one patient is required")
	}
	if visitDate.IsZero() {
		return nil, invalidInput("visit date is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ok, err := volunteerExists(ctx, tx, volunteerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Entity: "volunteer", ID: volunteerID}
	}

	seen := make(map[int64]bool, len(patientIDs))
	var ids []int64
	for _, patientID := range patientIDs {
		if seen[patientID] {
			continue
		}
		seen[patientID] = true

		if err := requireLivingPatient(ctx, tx, patientID); err != nil {
			return nil, err
		}

		id, err := insertVisit(ctx, tx, volunteerID, patientID, visitDate)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing visits: %w", err)
	}

	visits := make([]model.Visit, 0, len(ids))
	for _, id := range ids {
		v, err := GetVisit(ctx, db, id)
		if err != nil {
			return nil, err
		}
		visits = append(visits, *v)
	}
	return visits, nil
}

// insertVisit creates a pending visit with a fresh code, retrying when the
// random code collides with an existing one.
func insertVisit(ctx context.Context, tx *sql.Tx, volunteerID, patientID int64, visitDate time.Time) (int64, error) {
	for range visitCodeAttempts {
		suffix, err := visitCodeSuffix()
		if err != nil {
			return 0, fmt.Errorf("generating visit code: %w", err)
		}
		code := fmt.Sprintf("%s-%s-%s", visitCodePrefix, now().Format("20060102"), suffix)

		result, err := tx.ExecContext(ctx,
			`INSERT INTO visits (visit_code, volunteer_id, patient_id, visit_date) VALUES (?, ?, ?, ?)`,
			code, volunteerID, patientID, formatDate(visitDate),
		)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("creating visit: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting visit id: %w", err)
		}
		return id, nil
	}
	return 0, fmt.Errorf("generating visit code: no unique code after %d attempts", visitCodeAttempts)
}

// GetVisit returns a visit by ID together with its procedures and
// consumable usage lines.
func GetVisit(ctx context.Context, db *sql.DB, id int64) (*model.Visit, error) {
	v, err := scanVisit(db.QueryRowContext(ctx, visitSelect+` WHERE v.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting visit: %w", err)
	}

	if v.Procedures, err = listVisitProcedures(ctx, db, id); err != nil {
		return nil, err
	}
	if v.Consumables, err = listVisitConsumables(ctx, db, id); err != nil {
		return nil, err
	}
	return v, nil
}

// ListVisits returns one page of visits, most recent visit date first, plus
// the total number of matches.
func ListVisits(ctx context.Context, db *sql.DB, f VisitFilter, page model.Page) ([]model.Visit, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		where += ` AND v.status = ?`
		args = append(args, f.Status)
	}
	if f.VolunteerID > 0 {
		where += ` AND v.volunteer_id = ?`
		args = append(args, f.VolunteerID)
	}
	if f.PatientID > 0 {
		where += ` AND v.patient_id = ?`
		args = append(args, f.PatientID)
	}
	where, args = f.Dates.where("v.visit_date", where, args)

	return queryVisitPage(ctx, db, where, args, page)
}

// CountVisitsByStatus counts visits in the given status.
func CountVisitsByStatus(ctx context.Context, db *sql.DB, status model.VisitStatus) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE status = ?`, status,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting visits: %w", err)
	}
	return n, nil
}

// ListVolunteerVisitsOn returns a volunteer's visits planned for day.
func ListVolunteerVisitsOn(ctx context.Context, db *sql.DB, volunteerID int64, day time.Time) ([]model.Visit, error) {
	visits, _, err := ListVisits(ctx, db, VisitFilter{
		VolunteerID: volunteerID,
		Dates:       DateRange{From: day, To: day},
	}, model.Page{Size: model.MaxPageSize})
	return visits, err
}

// ListVolunteerHistory returns one page of a volunteer's finished visits.
func ListVolunteerHistory(ctx context.Context, db *sql.DB, volunteerID int64, page model.Page) ([]model.Visit, int, error) {
	return queryVisitPage(ctx, db,
		` WHERE v.volunteer_id = ? AND v.status IN (?, ?)`,
		[]any{volunteerID, model.VisitStatusCompleted, model.VisitStatusCancelled},
		page,
	)
}

func queryVisitPage(ctx context.Context, db *sql.DB, where string, args []any, page model.Page) ([]model.Visit, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits v`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting visits: %w", err)
	}

	page = page.Normalize()
	rows, err := db.QueryContext(ctx,
		visitSelect+where+` ORDER BY v.visit_date DESC, v.id DESC LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing visits: %w", err)
	}
	defer rows.Close()

	var visits []model.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning visit: %w", err)
		}
		visits = append(visits, *v)
	}
	return visits, total, rows.Err()
}

func listVisitProcedures(ctx context.Context, q querier, visitID int64) ([]model.Procedure, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT p.id, p.name, p.status, p.created_at
		 FROM visit_procedures vp
		 JOIN procedures p ON p.id = vp.procedure_id
		 WHERE vp.visit_id = ?
		 ORDER BY p.name`, visitID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visit procedures: %w", err)
	}
	defer rows.Close()

	var procedures []model.Procedure
	for rows.Next() {
		var p model.Procedure
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning visit procedure: %w", err)
		}
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

func listVisitConsumables(ctx context.Context, q querier, visitID int64) ([]model.ConsumableUsage, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT vc.id, vc.visit_id, vc.consumable_id, vc.quantity, c.name
		 FROM visit_consumables vc
		 JOIN consumables c ON c.id = vc.consumable_id
		 WHERE vc.visit_id = ?
		 ORDER BY vc.id`, visitID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing visit consumables: %w", err)
	}
	defer rows.Close()

	var usage []model.ConsumableUsage
	for rows.Next() {
		var u model.ConsumableUsage
		if err := rows.Scan(&u.ID, &u.VisitID, &u.ConsumableID, &u.Quantity, &u.ConsumableName); err != nil {
			return nil, fmt.Errorf("scanning visit consumable: %w", err)
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func scanVisit(row rowScanner) (*model.Visit, error) {
	v := &model.Visit{}
	var visitDate string
	var completedDate, notes sql.NullString
	var submittedBy sql.NullInt64
	if err := row.Scan(&v.ID, &v.VisitCode, &v.VolunteerID, &v.PatientID, &visitDate, &completedDate,
		&v.Status, &notes, &submittedBy, &v.CreatedAt, &v.UpdatedAt, &v.VolunteerName, &v.PatientName); err != nil {
		return nil, err
	}

	var err error
	if v.VisitDate, err = parseDate(visitDate); err != nil {
		return nil, err
	}
	if v.CompletedDate, err = parseNullDate(completedDate); err != nil {
		return nil, err
	}
	v.Notes = notes.String
	if submittedBy.Valid {
		v.SubmittedBy = &submittedBy.Int64
	}
	return v, nil
}
