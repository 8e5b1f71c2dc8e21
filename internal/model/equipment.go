package model

import "time"

// EquipmentType is a category of equipment, e.g. "Wheelchair".
type EquipmentType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Equipment is an individually tracked physical item. Allocated is true
// exactly when PatientID is set.
type Equipment struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	TypeID    int64      `json:"type_id"`
	Allocated bool       `json:"allocated"`
	PatientID *int64     `json:"patient_id,omitempty"`
	ImageMime string     `json:"image_mime,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	TypeName    string `json:"type_name,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

// AllocationPolicy decides what happens when equipment that is already held
// by a patient is allocated again.
type AllocationPolicy string

// Allocation policies.
const (
	// AllocationReassign moves the equipment to the new patient.
	AllocationReassign AllocationPolicy = "reassign"
	// AllocationExclusive refuses unless the equipment is free or already
	// held by the same patient.
	AllocationExclusive AllocationPolicy = "exclusive"
)

// Valid reports whether p is a known policy.
func (p AllocationPolicy) Valid() bool {
	return p == AllocationReassign || p == AllocationExclusive
}
