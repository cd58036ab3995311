package token

import (
	"time"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/geo"
)

type Status string

const (
	StatusActive    Status = "Active"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Token is a queue ticket. Completed and Cancelled are terminal.
type Token struct {
	ID             string     `db:"id" json:"id" bson:"_id"`
	TokenNumber    string     `db:"token_number" json:"tokenNumber" bson:"tokenNumber"`
	Sequence       int        `db:"sequence" json:"sequence" bson:"sequence"`
	PatientID      string     `db:"patient_id" json:"patientId" bson:"patientId"`
	PatientName    string     `db:"patient_name" json:"patientName" bson:"patientName"`
	HospitalName   string     `db:"hospital_name" json:"hospitalName" bson:"hospitalName"`
	Department     string     `db:"department" json:"department" bson:"department"`
	City           string     `db:"city" json:"city" bson:"city"`
	IssueDate      string     `db:"issue_date" json:"date" bson:"date"`
	GeneratedAt    time.Time  `db:"generated_at" json:"generatedAt" bson:"generatedAt"`
	Status         Status     `db:"status" json:"status" bson:"status"`
	Location       geo.Point  `db:"-" json:"location" bson:"location"`
	DistanceMeters float64    `db:"distance_meters" json:"distance" bson:"distance"`
	IsTestHospital bool       `db:"is_test_hospital" json:"isTestHospital" bson:"isTestHospital"`
	DoctorID       *string    `db:"doctor_id" json:"doctorId,omitempty" bson:"doctorId,omitempty"`
	PrescriptionID *string    `db:"prescription_id" json:"prescriptionId,omitempty" bson:"prescriptionId,omitempty"`
	CompletedAt    *time.Time `db:"completed_at" json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CancelledAt    *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`
}

// RequestInput carries the patient's device position. Missing coordinates
// stay nil so they can be told apart from the equator or prime meridian.
type RequestInput struct {
	PatientID  string   `json:"patientId"`
	CurrentLat *float64 `json:"currentLat"`
	CurrentLng *float64 `json:"currentLng"`
}

type CompleteInput struct {
	TokenNumber    string  `json:"tokenNumber"`
	DoctorID       string  `json:"doctorId"`
	PrescriptionID *string `json:"prescriptionId"`
}

type CancelInput struct {
	PatientID   string `json:"patientId"`
	TokenNumber string `json:"tokenNumber"`
}

// Filter narrows ListTokens. Zero fields match everything.
type Filter struct {
	HospitalName string
	Department   string
	Date         string
	Status       Status
	Limit        int
	Offset       int
}
