package model

import "time"

// PatientStatus is the lifecycle state of a patient record.
type PatientStatus string

// Patient statuses. Deceased patients keep their history but release their
// mobile number; inactive patients are no longer visited.
const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusDeceased PatientStatus = "deceased"
	PatientStatusInactive PatientStatus = "inactive"
)

// Patient is a person receiving home visits.
type Patient struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	MobileNumber     string        `json:"mobile_number,omitempty"`
	Age              int           `json:"age"`
	Gender           string        `json:"gender,omitempty"`
	Address          string        `json:"address,omitempty"`
	MedicalCondition string        `json:"medical_condition,omitempty"`
	EmergencyContact string        `json:"emergency_contact,omitempty"`
	Latitude         *float64      `json:"latitude,omitempty"`
	Longitude        *float64      `json:"longitude,omitempty"`
	Status           PatientStatus `json:"status"`
	RegisteredOn     time.Time     `json:"registered_on"`
	CreatedAt        time.Time     `json:"created_at"`
}

// Location is a patient's geographic position and street address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}
