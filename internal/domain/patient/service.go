package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/db"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/ident"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
	now  func() time.Time
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	return &Service{repo: repo, tx: tx, now: time.Now}
}

// Register creates the patient and its hospital binding as one unit of work.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Patient, error) {
	in = normalize(in)
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Patient{
		PatientID:        ident.PatientID(now),
		FullName:         in.FullName,
		DateOfBirth:      in.DateOfBirth,
		Age:              in.Age,
		Gender:           in.Gender,
		MobileNumber:     in.MobileNumber,
		NationalID:       in.NationalID,
		Address:          in.Address,
		City:             in.City,
		HospitalName:     in.HospitalName,
		Department:       in.Department,
		Status:           StatusRegistered,
		TokenStatus:      TokenPending,
		RegistrationDate: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	b := &Binding{
		PatientID:    p.PatientID,
		HospitalName: in.HospitalName,
		City:         in.City,
		Department:   in.Department,
		Coordinates:  *in.HospitalCoordinates,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if ok, err := s.repo.ExistsByMobile(ctx, p.MobileNumber); err != nil {
			return err
		} else if ok {
			return ErrMobileExists
		}
		if ok, err := s.repo.ExistsByNationalID(ctx, p.NationalID); err != nil {
			return err
		} else if ok {
			return ErrNationalIDExists
		}
		return s.repo.Create(ctx, p, b)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("patient_id", p.PatientID).
		Str("hospital", p.HospitalName).
		Str("department", p.Department).
		Msg("patient registered")
	return p, nil
}

func (s *Service) Get(ctx context.Context, patientID string) (*Patient, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, missing("patientId")
	}
	return s.repo.GetByID(ctx, patientID)
}

// FindByMobile reports whether a patient is registered under mobile. A miss
// is not an error.
func (s *Service) FindByMobile(ctx context.Context, mobile string) (*Patient, bool, error) {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return nil, false, missing("mobileNumber")
	}
	p, err := s.repo.GetByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return p, true, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func normalize(in RegisterInput) RegisterInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	in.Gender = strings.TrimSpace(in.Gender)
	in.MobileNumber = strings.TrimSpace(in.MobileNumber)
	in.NationalID = strings.TrimSpace(in.NationalID)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.HospitalName = strings.TrimSpace(in.HospitalName)
	in.Department = strings.TrimSpace(in.Department)
	return in
}

func validate(in RegisterInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", in.FullName},
		{"dateOfBirth", in.DateOfBirth},
		{"gender", in.Gender},
		{"mobileNumber", in.MobileNumber},
		{"aadhaarNumber", in.NationalID},
		{"address", in.Address},
		{"city", in.City},
		{"hospitalName", in.HospitalName},
		{"department", in.Department},
	}
	for _, f := range required {
		if f.value == "" {
			return missing(f.name)
		}
	}
	if in.Age <= 0 {
		return missing("age")
	}
	if _, err := time.Parse("2006-01-02", in.DateOfBirth); err != nil {
		return invalid("dateOfBirth", "must be YYYY-MM-DD")
	}
	if in.HospitalCoordinates == nil {
		return missing("hospitalCoordinates")
	}
	if err := in.HospitalCoordinates.Validate(); err != nil {
		return invalid("hospitalCoordinates", err.Error())
	}
	return nil
}

func missing(field string) error {
	return ErrMissingField.Withf("Missing required field: %s", field).With("field", field)
}

func invalid(field, reason string) error {
	return ErrInvalidField.Withf("Invalid %s: %s", field, reason).With("field", field)
}
