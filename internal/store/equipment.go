package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/carehub/internal/model"
)

const equipmentSelect = `SELECT e.id, e.name, e.type_id, e.allocated, e.patient_id, e.image_mime,
	        e.created_at, e.updated_at, e.deleted_at, t.name, p.name
	 FROM equipment e
	 JOIN equipment_types t ON t.id = e.type_id
	 LEFT JOIN patients p ON p.id = e.patient_id`

// EquipmentFilter narrows ListEquipment. Search matches the equipment name
// or the name of the patient holding it.
type EquipmentFilter struct {
	Allocated *bool
	Search    string
}

// CreateEquipmentType creates a new equipment category.
func CreateEquipmentType(ctx context.Context, db *sql.DB, name, description string) (*model.EquipmentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment_types (name, description) VALUES (?, ?)`,
		name, nullString(description),
	)
	if isUniqueViolation(err) {
		return nil, &DuplicateError{Entity: "equipment type", Field: "name", Value: name}
	}
	if err != nil {
		return nil, fmt.Errorf("creating equipment type: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment type id: %w", err)
	}
	return &model.EquipmentType{ID: id, Name: name, Description: description}, nil
}

// ListEquipmentTypes returns all equipment types ordered by name.
func ListEquipmentTypes(ctx context.Context, db *sql.DB) ([]model.EquipmentType, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, description FROM equipment_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing equipment types: %w", err)
	}
	defer rows.Close()

	var types []model.EquipmentType
	for rows.Next() {
		var et model.EquipmentType
		var description sql.NullString
		if err := rows.Scan(&et.ID, &et.Name, &description); err != nil {
			return nil, fmt.Errorf("scanning equipment type: %w", err)
		}
		et.Description = description.String
		types = append(types, et)
	}
	return types, rows.Err()
}

// CreateEquipment creates a new, unallocated equipment item.
func CreateEquipment(ctx context.Context, db *sql.DB, name string, typeID int64) (*model.Equipment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidInput("name is required")
	}

	var exists bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment_types WHERE id = ?)`, typeID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking equipment type: %w", err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "equipment type", ID: typeID}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment (name, type_id) VALUES (?, ?)`, name, typeID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment id: %w", err)
	}
	return GetEquipment(ctx, db, id)
}

// GetEquipment returns an equipment item by ID, including soft-deleted ones.
func GetEquipment(ctx context.Context, db *sql.DB, id int64) (*model.Equipment, error) {
	e, err := scanEquipment(db.QueryRowContext(ctx, equipmentSelect+` WHERE e.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}
	return e, nil
}

// ListEquipment returns one page of non-deleted equipment ordered by name,
// plus the total number of matches.
func ListEquipment(ctx context.Context, db *sql.DB, f EquipmentFilter, page model.Page) ([]model.Equipment, int, error) {
	where := ` WHERE e.deleted_at IS NULL`
	var args []any

	if f.Allocated != nil {
		where += ` AND e.allocated = ?`
		args = append(args, *f.Allocated)
	}
	if f.Search != "" {
		where += ` AND (LOWER(e.name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(p.name, '')) LIKE ? ESCAPE '\')`
		p := likePattern(f.Search)
		args = append(args, p, p)
	}

	var total int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM equipment e LEFT JOIN patients p ON p.id = e.patient_id`+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting equipment: %w", err)
	}

	page = page.Normalize()
	rows, err := db.QueryContext(ctx,
		equipmentSelect+where+` ORDER BY e.name, e.id LIMIT ? OFFSET ?`,
		append(args, page.Size, page.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing equipment: %w", err)
	}
	defer rows.Close()

	var items []model.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning equipment: %w", err)
		}
		items = append(items, *e)
	}
	return items, total, rows.Err()
}

// DeleteEquipment soft-deletes an equipment item. Allocated equipment must
// be returned first.
func DeleteEquipment(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE equipment SET deleted_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL AND allocated = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 1 {
		return nil
	}

	e, err := GetEquipment(ctx, db, id)
	if err != nil {
		return err
	}
	if e == nil || e.DeletedAt != nil {
		return &NotFoundError{Entity: "equipment", ID: id}
	}
	return fmt.Errorf("%w: equipment %d is allocated", ErrInUse, id)
}

// AllocateEquipment hands an equipment item to a patient. Under
// model.AllocationReassign a current holder is replaced; under
// model.AllocationExclusive the item must be free or already held by the
// same patient.
func AllocateEquipment(ctx context.Context, db *sql.DB, equipmentID, patientID int64, policy model.AllocationPolicy) (*model.Equipment, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var holder sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT patient_id FROM equipment WHERE id = ? AND deleted_at IS NULL`, equipmentID,
	).Scan(&holder)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "equipment", ID: equipmentID}
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment: %w", err)
	}

	if err := requireLivingPatient(ctx, tx, patientID); err != nil {
		return nil, err
	}

	if policy == model.AllocationExclusive && holder.Valid && holder.Int64 != patientID {
		return nil, fmt.Errorf("%w: equipment %d is held by patient %d", ErrAlreadyAllocated, equipmentID, holder.Int64)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE equipment SET allocated = 1, patient_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		patientID, equipmentID,
	); err != nil {
		return nil, fmt.Errorf("allocating equipment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing allocation: %w", err)
	}
	return GetEquipment(ctx, db, equipmentID)
}

// DeallocateEquipment returns an equipment item. Returning a free item is a no-op.
func DeallocateEquipment(ctx context.Context, db *sql.DB, equipmentID int64) (*model.Equipment, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE equipment SET allocated = 0, patient_id = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		equipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("deallocating equipment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, &NotFoundError{Entity: "equipment", ID: equipmentID}
	}
	return GetEquipment(ctx, db, equipmentID)
}

// SetEquipmentImage stores an equipment photo.
func SetEquipmentImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE equipment SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "equipment", ID: id}
	}
	return nil
}

// GetEquipmentImage returns an equipment photo and its MIME type. Both are
// empty if the item has no photo or does not exist.
func GetEquipmentImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM equipment WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment image: %w", err)
	}
	return image, mime.String, nil
}

func scanEquipment(row rowScanner) (*model.Equipment, error) {
	e := &model.Equipment{}
	var patientID sql.NullInt64
	var imageMime, patientName sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.TypeID, &e.Allocated, &patientID, &imageMime,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.TypeName, &patientName); err != nil {
		return nil, err
	}
	if patientID.Valid {
		e.PatientID = &patientID.Int64
	}
	e.ImageMime = imageMime.String
	e.PatientName = patientName.String
	return e, nil
}
