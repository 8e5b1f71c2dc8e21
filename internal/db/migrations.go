package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: lookup indexes for the visit listings (status filter,
	// per-volunteer day view, date ordering) and usage aggregation.
	`CREATE INDEX IF NOT EXISTS idx_visits_status_date ON visits(status, visit_date)`,
	`CREATE INDEX IF NOT EXISTS idx_visits_volunteer_date ON visits(volunteer_id, visit_date)`,
	`CREATE INDEX IF NOT EXISTS idx_visit_consumables_visit ON visit_consumables(visit_id)`,

	// Migration 2: equipment listing by holder.
	`CREATE INDEX IF NOT EXISTS idx_equipment_patient ON equipment(patient_id) WHERE patient_id IS NOT NULL`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
