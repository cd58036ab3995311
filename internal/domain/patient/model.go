package patient

import (
	"time"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/geo"
)

// TokenStatus tracks where a patient is in the queue. Only the token engine
// mutates it after registration.
type TokenStatus string

const (
	TokenPending    TokenStatus = "Token Pending"
	TokenGenerated  TokenStatus = "Token Generated"
	TokenCompleted  TokenStatus = "Completed"
	TokenRegistered TokenStatus = "Registered"
)

// StatusRegistered is the registration status of every new patient.
const StatusRegistered = "Registered"

// Patient maps to the patients table and the patients_profile collection.
type Patient struct {
	PatientID               string      `db:"patient_id" json:"patientId" bson:"patientId"`
	FullName                string      `db:"full_name" json:"fullName" bson:"fullName"`
	DateOfBirth             string      `db:"date_of_birth" json:"dateOfBirth" bson:"dateOfBirth"`
	Age                     int         `db:"age" json:"age" bson:"age"`
	Gender                  string      `db:"gender" json:"gender" bson:"gender"`
	MobileNumber            string      `db:"mobile_number" json:"mobileNumber" bson:"mobileNumber"`
	NationalID              string      `db:"national_id" json:"aadhaarNumber" bson:"aadhaarNumber"`
	Address                 string      `db:"address" json:"address" bson:"address"`
	City                    string      `db:"city" json:"city" bson:"city"`
	HospitalName            string      `db:"hospital_name" json:"hospitalName" bson:"hospitalName"`
	Department              string      `db:"department" json:"department" bson:"department"`
	Status                  string      `db:"status" json:"status" bson:"status"`
	TokenStatus             TokenStatus `db:"token_status" json:"tokenStatus" bson:"tokenStatus"`
	TokenNumber             *string     `db:"token_number" json:"tokenNumber,omitempty" bson:"tokenNumber,omitempty"`
	TokenGeneratedAt        *time.Time  `db:"token_generated_at" json:"tokenGeneratedAt,omitempty" bson:"tokenGeneratedAt,omitempty"`
	ConsultationCompletedAt *time.Time  `db:"consultation_completed_at" json:"consultationCompletedAt,omitempty" bson:"consultationCompletedAt,omitempty"`
	RegistrationDate        time.Time   `db:"registration_date" json:"registrationDate" bson:"registrationDate"`
	CreatedAt               time.Time   `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time   `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// HasActiveToken reports whether the patient currently holds a queue token.
func (p *Patient) HasActiveToken() bool {
	return p.TokenStatus == TokenGenerated
}

// Binding links a patient's visit to the hospital geofence. It maps to the
// hospital_bindings table and the hospital_locations collection.
type Binding struct {
	PatientID               string      `db:"patient_id" json:"patientId" bson:"patientId"`
	HospitalName            string      `db:"hospital_name" json:"hospitalName" bson:"hospitalName"`
	City                    string      `db:"city" json:"city" bson:"city"`
	Department              string      `db:"department" json:"department" bson:"department"`
	Coordinates             geo.Point   `db:"-" json:"coordinates" bson:"coordinates"`
	TokenNumber             *string     `db:"token_number" json:"tokenNumber,omitempty" bson:"tokenNumber,omitempty"`
	TokenStatus             TokenStatus `db:"token_status" json:"tokenStatus,omitempty" bson:"tokenStatus,omitempty"`
	TokenGeneratedAt        *time.Time  `db:"token_generated_at" json:"tokenGeneratedAt,omitempty" bson:"tokenGeneratedAt,omitempty"`
	ConsultationCompletedAt *time.Time  `db:"consultation_completed_at" json:"consultationCompletedAt,omitempty" bson:"consultationCompletedAt,omitempty"`
	CreatedAt               time.Time   `db:"created_at" json:"createdAt" bson:"createdAt"`
	UpdatedAt               time.Time   `db:"updated_at" json:"updatedAt" bson:"updatedAt"`
}

// RegisterInput is the intake form submitted by a patient.
type RegisterInput struct {
	FullName            string     `json:"fullName"`
	DateOfBirth         string     `json:"dateOfBirth"`
	Age                 int        `json:"age"`
	Gender              string     `json:"gender"`
	MobileNumber        string     `json:"mobileNumber"`
	NationalID          string     `json:"aadhaarNumber"`
	Address             string     `json:"address"`
	City                string     `json:"city"`
	HospitalName        string     `json:"hospitalName"`
	Department          string     `json:"department"`
	HospitalCoordinates *geo.Point `json:"hospitalCoordinates"`
}
