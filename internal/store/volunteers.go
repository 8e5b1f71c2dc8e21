package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/carehub/internal/model"
)

// NewVolunteer holds everything needed to register a volunteer and their login.
type NewVolunteer struct {
	Username       string
	PasswordHash   string
	Name           string
	MobileNumber   string
	Address        string
	Specialization string
}

const volunteerSelect = `SELECT v.id, v.user_id, v.name, v.mobile_number, v.address, v.specialization,
	        v.status, v.created_at, u.username
	 FROM volunteers v
	 JOIN users u ON u.id = v.user_id`

// CreateVolunteer creates a volunteer login and profile in one transaction.
func CreateVolunteer(ctx context.Context, db *sql.DB, nv NewVolunteer) (*model.Volunteer, error) {
	nv.Name = strings.TrimSpace(nv.Name)
	nv.MobileNumber = strings.TrimSpace(nv.MobileNumber)
	if nv.Name == "" {
		return nil, invalidInput("name is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := insertUser(ctx, tx, nv.Username, nv.PasswordHash, model.RoleVolunteer)
	if err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO volunteers (user_id, name, mobile_number, address, specialization)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, nv.Name, nullString(nv.MobileNumber), nullString(nv.Address), nullString(nv.Specialization),
	)
	if isUniqueViolation(err) {
		return nil, &DuplicateError{Entity: "volunteer", Field: "mobile_number", Value: nv.MobileNumber}
	}
	if err != nil {
		return nil, fmt.Errorf("creating volunteer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting volunteer id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing volunteer: %w", err)
	}

	return GetVolunteer(ctx, db, id)
}

// GetVolunteer returns a volunteer by ID.
func GetVolunteer(ctx context.Context, db *sql.DB, id int64) (*model.Volunteer, error) {
	return getVolunteer(ctx, db, `v.id = ?`, id)
}

// GetVolunteerByUserID returns the volunteer profile of a login, if any.
func GetVolunteerByUserID(ctx context.Context, db *sql.DB, userID int64) (*model.Volunteer, error) {
	return getVolunteer(ctx, db, `v.user_id = ?`, userID)
}

func getVolunteer(ctx context.Context, db *sql.DB, cond string, arg int64) (*model.Volunteer, error) {
	v, err := scanVolunteer(db.QueryRowContext(ctx, volunteerSelect+` WHERE `+cond, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting volunteer: %w", err)
	}
	return v, nil
}

// ListVolunteers returns one page of active volunteers whose name or mobile
// number contains search, plus the total number of matches.
func ListVolunteers(ctx context.Context, db *sql.DB, search string, page model.Page) ([]model.Volunteer, int, error) {
	where := ` WHERE v.status = 'active'`
	var args []any
	if search != "" {
		where += ` AND (LOWER(v.name) LIKE ? ESCAPE '\' OR v.mobile_number LIKE ? ESCAPE '\')`
		p := likePattern(search)
		args = append(args, p, p)
	}

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM volunteers v`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting volunteers: %w", err)
	}

	page = page.Normalize()
	rows, err := db.QueryContext(ctx,
		volunteerSelect+where+` ORDER BY v.name, v.id LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []model.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning volunteer: %w", err)
		}
		volunteers = append(volunteers, *v)
	}
	return volunteers, total, rows.Err()
}

// DeactivateVolunteer marks a volunteer inactive, releases their mobile
// number and disables their login. Past visits keep referencing the profile.
func DeactivateVolunteer(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var userID int64
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM volunteers WHERE id = ?`, id).Scan(&userID)
	if err == sql.ErrNoRows {
		return &NotFoundError{Entity: "volunteer", ID: id}
	}
	if err != nil {
		return fmt.Errorf("getting volunteer: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE volunteers SET status = ?, mobile_number = NULL WHERE id = ?`,
		model.StatusInactive, id,
	); err != nil {
		return fmt.Errorf("deactivating volunteer: %w", err)
	}
	if _, err := deleteUser(ctx, tx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing volunteer deactivation: %w", err)
	}
	return nil
}

func volunteerExists(ctx context.Context, q querier, id int64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM volunteers WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking volunteer: %w", err)
	}
	return exists, nil
}

func scanVolunteer(row rowScanner) (*model.Volunteer, error) {
	v := &model.Volunteer{}
	var mobile, address, specialization sql.NullString
	if err := row.Scan(&v.ID, &v.UserID, &v.Name, &mobile, &address, &specialization,
		&v.Status, &v.CreatedAt, &v.Username); err != nil {
		return nil, err
	}
	v.MobileNumber = mobile.String
	v.Address = address.String
	v.Specialization = specialization.String
	return v, nil
}
