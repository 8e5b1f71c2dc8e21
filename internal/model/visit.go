package model

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// VisitStatus is the lifecycle state of a visit.
type VisitStatus string

// Visit statuses. Pending is the only initial state; completed and cancelled
// are terminal.
const (
	VisitStatusPending   VisitStatus = "pending"
	VisitStatusCompleted VisitStatus = "completed"
	VisitStatusCancelled VisitStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s VisitStatus) Valid() bool {
	return s == VisitStatusPending || s == VisitStatusCompleted || s == VisitStatusCancelled
}

// Terminal reports whether s is a final state.
func (s VisitStatus) Terminal() bool {
	return s == VisitStatusCompleted || s == VisitStatusCancelled
}

// CanTransitionTo reports whether a report may move a visit from s to next.
// A pending visit can finish either way; a finished visit can only be
// re-reported with the same outcome.
func (s VisitStatus) CanTransitionTo(next VisitStatus) bool {
	if !next.Terminal() {
		return false
	}
	if s == VisitStatusPending {
		return true
	}
	return s == next
}

// Visit is a caregiving encounter between one volunteer and one patient.
type Visit struct {
	ID            int64       `json:"id"`
	VisitCode     string      `json:"visit_code"`
	VolunteerID   int64       `json:"volunteer_id"`
	PatientID     int64       `json:"patient_id"`
	VisitDate     time.Time   `json:"visit_date"`
	CompletedDate *time.Time  `json:"completed_date,omitempty"`
	Status        VisitStatus `json:"status"`
	Notes         string      `json:"notes,omitempty"`
	SubmittedBy   *int64      `json:"submitted_by,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	// Joined fields (not always populated).
	VolunteerName string            `json:"volunteer_name,omitempty"`
	PatientName   string            `json:"patient_name,omitempty"`
	Procedures    []Procedure       `json:"procedures,omitempty"`
	Consumables   []ConsumableUsage `json:"consumables,omitempty"`
}
