package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/carehub/internal/model"
)

const patientColumns = `id, name, mobile_number, age, gender, address, medical_condition,
	emergency_contact, latitude, longitude, status, registered_on, created_at`

// PatientFilter narrows ListPatients.
type PatientFilter struct {
	Search    string
	AliveOnly bool
}

// CreatePatient registers a patient. The mobile number is required and
// must not be held by another patient.
func CreatePatient(ctx context.Context, db *sql.DB, p model.Patient) (*model.Patient, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.MobileNumber = strings.TrimSpace(p.MobileNumber)
	if p.Name == "" {
		return nil, invalidInput("name is required")
	}
	if p.MobileNumber == "" {
		return nil, invalidInput("mobile number is required")
	}
	if p.Age < 0 {
		return nil, invalidInput("age must not be negative")
	}

	registered := today()
	if !p.RegisteredOn.IsZero() {
		registered = formatDate(p.RegisteredOn)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO patients (name, mobile_number, age, gender, address, medical_condition,
		                       emergency_contact, latitude, longitude, registered_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.MobileNumber, p.Age, nullString(p.Gender), nullString(p.Address),
		nullString(p.MedicalCondition), nullString(p.EmergencyContact), p.Latitude, p.Longitude, registered,
	)
	if isUniqueViolation(err) {
		return nil, &DuplicateError{Entity: "patient", Field: "mobile_number", Value: p.MobileNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting patient id: %w", err)
	}
	return GetPatient(ctx, db, id)
}

// GetPatient returns a patient by ID.
func GetPatient(ctx context.Context, db *sql.DB, id int64) (*model.Patient, error) {
	p, err := scanPatient(db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting patient: %w", err)
	}
	return p, nil
}

// ListPatients returns one page of patients ordered by name, plus the total
// number of matches.
func ListPatients(ctx context.Context, db *sql.DB, f PatientFilter, page model.Page) ([]model.Patient, int, error) {
	where := ` WHERE 1=1`
	var args []any

	if f.AliveOnly {
		where += ` AND status != ?`
		args = append(args, model.PatientStatusDeceased)
	}
	if f.Search != "" {
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR mobile_number LIKE ? ESCAPE '\')`
		p := likePattern(f.Search)
		args = append(args, p, p)
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting patients: %w", err)
	}

	page = page.Normalize()
	rows, err := db.QueryContext(ctx,
		`SELECT `+patientColumns+` FROM patients`+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing patients: %w", err)
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning patient: %w", err)
		}
		patients = append(patients, *p)
	}
	return patients, total, rows.Err()
}

// MarkPatientDeceased records a patient's death and releases their mobile
// number for reuse.
func MarkPatientDeceased(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE patients SET status = ?, mobile_number = NULL WHERE id = ?`,
		model.PatientStatusDeceased, id,
	)
	if err != nil {
		return fmt.Errorf("marking patient deceased: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "patient", ID: id}
	}
	return nil
}

// UpdatePatientLocation sets a patient's coordinates and address.
func UpdatePatientLocation(ctx context.Context, db *sql.DB, id int64, loc model.Location) (*model.Patient, error) {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, invalidInput("coordinates out of range")
	}

	result, err := db.ExecContext(ctx,
		`UPDATE patients SET latitude = ?, longitude = ?, address = ? WHERE id = ?`,
		loc.Latitude, loc.Longitude, nullString(loc.Address), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating patient location: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, &NotFoundError{Entity: "patient", ID: id}
	}
	return GetPatient(ctx, db, id)
}

// CountNewPatients counts patients registered within r.
func CountNewPatients(ctx context.Context, db *sql.DB, r DateRange) (int, error) {
	where, args := r.where("registered_on", ` WHERE 1=1`, nil)

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting new patients: %w", err)
	}
	return n, nil
}

// requireLivingPatient fails with NotFound for an unknown patient and with
// ErrInvalidInput for one marked deceased.
func requireLivingPatient(ctx context.Context, q querier, id int64) error {
	var status model.PatientStatus
	err := q.QueryRowContext(ctx, `SELECT status FROM patients WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "patient", ID: id}
	}
	if err != nil {
		return fmt.Errorf("checking patient: %w", err)
	}
	if status == model.PatientStatusDeceased {
		return invalidInput(fmt.Sprintf("patient %d is deceased", id))
	}
	return nil
}

func scanPatient(row rowScanner) (*model.Patient, error) {
	p := &model.Patient{}
	var mobile, gender, address, condition, emergency sql.NullString
	var lat, lng sql.NullFloat64
	var registered string
	if err := row.Scan(&p.ID, &p.Name, &mobile, &p.Age, &gender, &address, &condition,
		&emergency, &lat, &lng, &p.Status, &registered, &p.CreatedAt); err != nil {
		return nil, err
	}

	p.MobileNumber = mobile.String
	p.Gender = gender.String
	p.Address = address.String
	p.MedicalCondition = condition.String
	p.EmergencyContact = emergency.String
	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lng.Valid {
		p.Longitude = &lng.Float64
	}

	var err error
	if p.RegisteredOn, err = parseDate(registered); err != nil {
		return nil, err
	}
	return p, nil
}
