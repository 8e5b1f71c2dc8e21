package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'volunteer' CHECK (role IN ('admin', 'coordinator', 'volunteer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS volunteers (
    id             INTEGER PRIMARY KEY,
    user_id        INTEGER NOT NULL UNIQUE REFERENCES users(id),
    name           TEXT NOT NULL,
    mobile_number  TEXT,
    address        TEXT,
    specialization TEXT,
    status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_volunteers_mobile
    ON volunteers(mobile_number) WHERE mobile_number IS NOT NULL;

CREATE TABLE IF NOT EXISTS patients (
    id                INTEGER PRIMARY KEY,
    name              TEXT NOT NULL,
    mobile_number     TEXT,
    age               INTEGER NOT NULL DEFAULT 0,
    gender            TEXT,
    address           TEXT,
    medical_condition TEXT,
    emergency_contact TEXT,
    latitude          REAL,
    longitude         REAL,
    status            TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'deceased', 'inactive')),
    registered_on     TEXT NOT NULL,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_mobile
    ON patients(mobile_number) WHERE mobile_number IS NOT NULL;

CREATE TABLE IF NOT EXISTS procedures (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS consumables (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    category   TEXT,
    unit       TEXT,
    quantity   INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive')),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS equipment_types (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    description TEXT
);

CREATE TABLE IF NOT EXISTS equipment (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    type_id    INTEGER NOT NULL REFERENCES equipment_types(id),
    allocated  INTEGER NOT NULL DEFAULT 0,
    patient_id INTEGER REFERENCES patients(id),
    image      BLOB,
    image_mime TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME,
    CHECK ((allocated = 1 AND patient_id IS NOT NULL) OR (allocated = 0 AND patient_id IS NULL))
);

CREATE TABLE IF NOT EXISTS visits (
    id             INTEGER PRIMARY KEY,
    visit_code     TEXT NOT NULL UNIQUE,
    volunteer_id   INTEGER NOT NULL REFERENCES volunteers(id),
    patient_id     INTEGER NOT NULL REFERENCES patients(id),
    visit_date     TEXT NOT NULL,
    completed_date TEXT,
    status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'completed', 'cancelled')),
    notes          TEXT,
    submitted_by   INTEGER REFERENCES users(id),
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS visit_procedures (
    visit_id     INTEGER NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
    procedure_id INTEGER NOT NULL REFERENCES procedures(id),
    PRIMARY KEY (visit_id, procedure_id)
);

CREATE TABLE IF NOT EXISTS visit_consumables (
    id            INTEGER PRIMARY KEY,
    visit_id      INTEGER NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
    consumable_id INTEGER NOT NULL REFERENCES consumables(id),
    quantity      INTEGER NOT NULL CHECK (quantity > 0)
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
