package patient

import (
	"context"
	"time"
)

// Repository persists patients and their hospital bindings. Lookups return
// ErrPatientNotFound or ErrBindingNotFound when nothing matches; Create
// returns ErrMobileExists or ErrNationalIDExists on a uniqueness violation.
type Repository interface {
	Create(ctx context.Context, p *Patient, b *Binding) error
	GetByID(ctx context.Context, patientID string) (*Patient, error)
	GetByMobile(ctx context.Context, mobile string) (*Patient, error)
	ExistsByMobile(ctx context.Context, mobile string) (bool, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	GetBinding(ctx context.Context, patientID string) (*Binding, error)

	// Token state, mirrored onto the binding.
	MarkTokenGenerated(ctx context.Context, patientID, tokenNumber string, at time.Time) error
	ClearToken(ctx context.Context, patientID string, at time.Time) error
	MarkConsultationCompleted(ctx context.Context, patientID string, at time.Time) error
}
