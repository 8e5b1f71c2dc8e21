package model

// Status is the activity flag shared by records that are soft-deleted by
// deactivation rather than removed (consumables, procedures, volunteers).
type Status string

// Statuses.
const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}
