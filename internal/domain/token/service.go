package token

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/patient"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/db"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/geo"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/ident"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/lock"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/telemetry"
)

const (
	dateLayout = "2006-01-02"

	// maxAllocAttempts bounds retries when an allocated number is already taken.
	maxAllocAttempts = 3
)

// Config holds the admission rules.
type Config struct {
	RadiusMeters float64
	// TestHospitalName bypasses the distance check. Empty disables the bypass.
	TestHospitalName     string
	TestHospitalDistance float64
	// Location decides the calendar day tokens are sequenced in.
	Location *time.Location
}

type Service struct {
	tokens   Repository
	patients PatientStore
	locker   lock.Locker
	tx       db.TxRunner
	metrics  *telemetry.Metrics
	cfg      Config
	now      func() time.Time
}

func NewService(tokens Repository, patients PatientStore, locker lock.Locker, tx db.TxRunner, cfg Config) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if tx == nil {
		tx = db.NoTx{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		tokens:   tokens,
		patients: patients,
		locker:   locker,
		tx:       tx,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetMetrics enables business counters. A nil value disables them.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// RequestToken admits the patient into today's queue once they are inside
// the hospital geofence.
func (s *Service) RequestToken(ctx context.Context, in RequestInput) (*Token, error) {
	in.PatientID = strings.TrimSpace(in.PatientID)
	switch {
	case in.PatientID == "":
		return nil, s.reject(missing("patientId"), "invalid_input")
	case in.CurrentLat == nil:
		return nil, s.reject(missing("currentLat"), "invalid_input")
	case in.CurrentLng == nil:
		return nil, s.reject(missing("currentLng"), "invalid_input")
	}
	current := geo.Point{Lat: *in.CurrentLat, Lng: *in.CurrentLng}
	if err := current.Validate(); err != nil {
		return nil, s.reject(ErrInvalidCoordinates.Withf("Invalid coordinates: %v", err), "invalid_input")
	}

	unlock, err := s.locker.Lock(ctx, lock.PatientKey(in.PatientID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	issueDate := now.In(s.cfg.Location).Format(dateLayout)

	p, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return nil, s.reject(err, "patient_not_found")
	}
	if err := s.checkEligible(p, issueDate); err != nil {
		return nil, s.reject(err, "already_has_token")
	}
	b, err := s.patients.GetBinding(ctx, in.PatientID)
	if err != nil {
		return nil, s.reject(err, "binding_not_found")
	}

	distance, isTest := s.distance(b, current)
	reported := math.Round(distance)
	if !isTest && distance > s.cfg.RadiusMeters {
		return nil, s.reject(ErrTooFar.
			Withf("Patient is %d meters away from hospital. Must be within %d meters to generate token.",
				int64(reported), int64(s.cfg.RadiusMeters)).
			With("distance", reported).
			With("isTestHospital", false), "too_far")
	}

	scope := ident.TokenPrefix(b.HospitalName) + "-" + ident.TokenPrefix(b.Department)
	var issued *Token
	for attempt := 1; attempt <= maxAllocAttempts; attempt++ {
		// The counter commits on its own so that a retry never sees the same value.
		seq, err := s.tokens.NextSequence(ctx, scope, issueDate)
		if err != nil {
			return nil, err
		}
		t := &Token{
			ID:             newTokenID(),
			TokenNumber:    ident.TokenNumber(b.HospitalName, b.Department, seq),
			Sequence:       seq,
			PatientID:      p.PatientID,
			PatientName:    p.FullName,
			HospitalName:   b.HospitalName,
			Department:     b.Department,
			City:           b.City,
			IssueDate:      issueDate,
			GeneratedAt:    now,
			Status:         StatusActive,
			Location:       current,
			DistanceMeters: reported,
			IsTestHospital: isTest,
		}
		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := s.tokens.Create(ctx, t); err != nil {
				return err
			}
			return s.patients.MarkTokenGenerated(ctx, p.PatientID, t.TokenNumber, now)
		})
		if err == nil {
			issued = t
			break
		}
		if !errors.Is(err, errSequenceTaken) {
			if errors.Is(err, ErrAlreadyHasToken) {
				return nil, s.reject(err, "already_has_token")
			}
			return nil, err
		}
		zerolog.Ctx(ctx).Warn().
			Str("token_number", t.TokenNumber).
			Int("attempt", attempt).
			Msg("token number taken, allocating another")
	}
	if issued == nil {
		return nil, s.reject(ErrSequenceContention, "sequence_contention")
	}

	s.metrics.TokenIssued(issued.HospitalName, issued.Department)
	zerolog.Ctx(ctx).Info().
		Str("patient_id", issued.PatientID).
		Str("token_number", issued.TokenNumber).
		Float64("distance_m", issued.DistanceMeters).
		Bool("test_hospital", issued.IsTestHospital).
		Msg("token issued")
	return issued, nil
}

// checkEligible rejects patients holding a token, and those whose
// consultation already completed on the current queue day.
func (s *Service) checkEligible(p *patient.Patient, issueDate string) error {
	switch p.TokenStatus {
	case patient.TokenGenerated:
		return ErrAlreadyHasToken
	case patient.TokenCompleted:
		if p.ConsultationCompletedAt != nil &&
			p.ConsultationCompletedAt.In(s.cfg.Location).Format(dateLayout) == issueDate {
			return ErrAlreadyHasToken.Withf("Patient already completed a consultation today")
		}
	}
	return nil
}

func (s *Service) distance(b *patient.Binding, current geo.Point) (float64, bool) {
	if s.cfg.TestHospitalName != "" && b.HospitalName == s.cfg.TestHospitalName {
		return s.cfg.TestHospitalDistance, true
	}
	return geo.DistanceMeters(current, b.Coordinates), false
}

// CompleteToken closes an Active token after the consultation.
func (s *Service) CompleteToken(ctx context.Context, in CompleteInput) (*Token, error) {
	in.TokenNumber = strings.TrimSpace(in.TokenNumber)
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	if in.TokenNumber == "" {
		return nil, missing("tokenNumber")
	}
	if in.DoctorID == "" {
		return nil, missing("doctorId")
	}
	if in.PrescriptionID != nil && strings.TrimSpace(*in.PrescriptionID) == "" {
		in.PrescriptionID = nil
	}

	current, err := s.tokens.GetByNumber(ctx, in.TokenNumber)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrTokenNotActive
		}
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.PatientKey(current.PatientID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	var done *Token
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.tokens.Complete(ctx, in.TokenNumber, in.DoctorID, in.PrescriptionID, now)
		if err != nil {
			return err
		}
		if err := s.patients.MarkConsultationCompleted(ctx, t.PatientID, now); err != nil {
			return err
		}
		done = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TokenTransition(string(StatusCompleted))
	zerolog.Ctx(ctx).Info().
		Str("token_number", done.TokenNumber).
		Str("patient_id", done.PatientID).
		Str("doctor_id", in.DoctorID).
		Msg("token completed")
	return done, nil
}

// CancelToken withdraws the patient's Active token so they may request a
// new one.
func (s *Service) CancelToken(ctx context.Context, in CancelInput) (*Token, error) {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.TokenNumber = strings.TrimSpace(in.TokenNumber)
	if in.PatientID == "" {
		return nil, missing("patientId")
	}
	if in.TokenNumber == "" {
		return nil, missing("tokenNumber")
	}

	unlock, err := s.locker.Lock(ctx, lock.PatientKey(in.PatientID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.patients.GetByID(ctx, in.PatientID); err != nil {
		return nil, err
	}
	current, err := s.tokens.GetByNumber(ctx, in.TokenNumber)
	if err != nil {
		return nil, err
	}
	if current.PatientID != in.PatientID {
		// An older token may share the number; the patient's own one wins.
		if own, err := s.tokens.GetActiveByPatient(ctx, in.PatientID); err == nil && own.TokenNumber == in.TokenNumber {
			current = own
		} else {
			return nil, ErrTokenNotOwned
		}
	}
	if current.Status != StatusActive {
		return nil, ErrTokenNotActive
	}

	now := s.now()
	var cancelled *Token
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		t, err := s.tokens.Cancel(ctx, in.PatientID, in.TokenNumber, now)
		if err != nil {
			return err
		}
		if err := s.patients.ClearToken(ctx, in.PatientID, now); err != nil {
			return err
		}
		cancelled = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TokenTransition(string(StatusCancelled))
	zerolog.Ctx(ctx).Info().
		Str("token_number", cancelled.TokenNumber).
		Str("patient_id", cancelled.PatientID).
		Msg("token cancelled")
	return cancelled, nil
}

// VerifyToken resolves a token and its patient for the doctor workflow.
func (s *Service) VerifyToken(ctx context.Context, number string) (*Token, *patient.Patient, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, nil, missing("tokenNumber")
	}
	t, err := s.tokens.GetByNumber(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.patients.GetByID(ctx, t.PatientID)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			zerolog.Ctx(ctx).Error().
				Str("token_number", t.TokenNumber).
				Str("patient_id", t.PatientID).
				Msg("token references a missing patient")
			return nil, nil, ErrPatientMissing
		}
		return nil, nil, err
	}
	return t, p, nil
}

// ListTokens returns tokens ordered by queue position within each day.
func (s *Service) ListTokens(ctx context.Context, f Filter) ([]*Token, int, error) {
	f.HospitalName = strings.TrimSpace(f.HospitalName)
	f.Department = strings.TrimSpace(f.Department)
	if f.Date != "" {
		if _, err := time.Parse(dateLayout, f.Date); err != nil {
			return nil, 0, ErrInvalidFilter.Withf("Invalid date %q, expected YYYY-MM-DD", f.Date)
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidFilter.Withf("Invalid status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.tokens.List(ctx, f)
}

func (s *Service) reject(err error, reason string) error {
	s.metrics.TokenRejected(reason)
	return err
}

func missing(field string) error {
	return ErrMissingField.Withf("Missing required field: %s", field).With("field", field)
}

func newTokenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
