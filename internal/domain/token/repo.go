package token

import (
	"context"
	"time"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/patient"
)

// Repository persists tokens. Create returns ErrAlreadyHasToken when the
// patient already holds an Active token and errSequenceTaken when the number
// or sequence is in use. Complete and Cancel only match Active tokens and
// return ErrTokenNotActive otherwise.
type Repository interface {
	// NextSequence atomically increments and returns the counter for scope on
	// issueDate, starting at 1.
	NextSequence(ctx context.Context, scope, issueDate string) (int, error)
	Create(ctx context.Context, t *Token) error
	// GetByNumber returns the most recently issued token with number.
	GetByNumber(ctx context.Context, number string) (*Token, error)
	GetActiveByPatient(ctx context.Context, patientID string) (*Token, error)
	Complete(ctx context.Context, number, doctorID string, prescriptionID *string, at time.Time) (*Token, error)
	Cancel(ctx context.Context, patientID, number string, at time.Time) (*Token, error)
	List(ctx context.Context, f Filter) ([]*Token, int, error)
}

// PatientStore is the part of the patient repository the engine drives.
type PatientStore interface {
	GetByID(ctx context.Context, patientID string) (*patient.Patient, error)
	GetBinding(ctx context.Context, patientID string) (*patient.Binding, error)
	MarkTokenGenerated(ctx context.Context, patientID, tokenNumber string, at time.Time) error
	ClearToken(ctx context.Context, patientID string, at time.Time) error
	MarkConsultationCompleted(ctx context.Context, patientID string, at time.Time) error
}
