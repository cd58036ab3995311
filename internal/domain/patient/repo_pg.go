package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const patientCols = `patient_id, full_name, date_of_birth, age, gender, mobile_number, national_id,
	address, city, hospital_name, department, status, token_status, token_number,
	token_generated_at, consultation_completed_at, registration_date, created_at, updated_at`

const bindingCols = `patient_id, hospital_name, city, department, latitude, longitude,
	token_number, token_status, token_generated_at, consultation_completed_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient, b *Binding) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (`+patientCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.PatientID, p.FullName, p.DateOfBirth, p.Age, p.Gender, p.MobileNumber, p.NationalID,
		p.Address, p.City, p.HospitalName, p.Department, p.Status, string(p.TokenStatus), p.TokenNumber,
		p.TokenGeneratedAt, p.ConsultationCompletedAt, p.RegistrationDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			switch constraint {
			case "patients_mobile_number_key":
				return ErrMobileExists
			case "patients_national_id_key":
				return ErrNationalIDExists
			}
		}
		return fmt.Errorf("insert patient: %w", err)
	}

	var status *string
	if b.TokenStatus != "" {
		s := string(b.TokenStatus)
		status = &s
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital_bindings (`+bindingCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		b.PatientID, b.HospitalName, b.City, b.Department, b.Coordinates.Lat, b.Coordinates.Lng,
		b.TokenNumber, status, b.TokenGeneratedAt, b.ConsultationCompletedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert hospital binding: %w", err)
	}
	return nil
}

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var status string
	err := row.Scan(&p.PatientID, &p.FullName, &p.DateOfBirth, &p.Age, &p.Gender, &p.MobileNumber, &p.NationalID,
		&p.Address, &p.City, &p.HospitalName, &p.Department, &p.Status, &status, &p.TokenNumber,
		&p.TokenGeneratedAt, &p.ConsultationCompletedAt, &p.RegistrationDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.TokenStatus = TokenStatus(status)
	return &p, nil
}

func (r *repoPG) getOne(ctx context.Context, where string, arg interface{}) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE `+where+` = $1`, arg))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) GetByID(ctx context.Context, patientID string) (*Patient, error) {
	return r.getOne(ctx, "patient_id", patientID)
}

func (r *repoPG) GetByMobile(ctx context.Context, mobile string) (*Patient, error) {
	return r.getOne(ctx, "mobile_number", mobile)
}

func (r *repoPG) exists(ctx context.Context, column, value string) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE `+column+` = $1)`, value).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check patient %s: %w", column, err)
	}
	return ok, nil
}

func (r *repoPG) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	return r.exists(ctx, "mobile_number", mobile)
}

func (r *repoPG) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, "national_id", nationalID)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientCols+` FROM patients
		ORDER BY created_at DESC, patient_id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetBinding(ctx context.Context, patientID string) (*Binding, error) {
	var b Binding
	var status *string
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+bindingCols+` FROM hospital_bindings WHERE patient_id = $1`, patientID).Scan(
		&b.PatientID, &b.HospitalName, &b.City, &b.Department, &b.Coordinates.Lat, &b.Coordinates.Lng,
		&b.TokenNumber, &status, &b.TokenGeneratedAt, &b.ConsultationCompletedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrBindingNotFound
		}
		return nil, fmt.Errorf("get hospital binding: %w", err)
	}
	if status != nil {
		b.TokenStatus = TokenStatus(*status)
	}
	return &b, nil
}

// updateBoth applies the same token update to the patient and its binding.
// A missing patient is reported; a missing binding is tolerated because the
// binding only mirrors the patient.
func (r *repoPG) updateBoth(ctx context.Context, patientSQL, bindingSQL string, args ...interface{}) error {
	tag, err := r.conn(ctx).Exec(ctx, patientSQL, args...)
	if err != nil {
		return fmt.Errorf("update patient token state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	if _, err := r.conn(ctx).Exec(ctx, bindingSQL, args...); err != nil {
		return fmt.Errorf("update binding token state: %w", err)
	}
	return nil
}

func (r *repoPG) MarkTokenGenerated(ctx context.Context, patientID, tokenNumber string, at time.Time) error {
	return r.updateBoth(ctx, `
		UPDATE patients SET token_status = 'Token Generated', token_number = $2,
			token_generated_at = $3, consultation_completed_at = NULL, updated_at = $3
		WHERE patient_id = $1`, `
		UPDATE hospital_bindings SET token_status = 'Token Generated', token_number = $2,
			token_generated_at = $3, consultation_completed_at = NULL, updated_at = $3
		WHERE patient_id = $1`,
		patientID, tokenNumber, at)
}

func (r *repoPG) ClearToken(ctx context.Context, patientID string, at time.Time) error {
	return r.updateBoth(ctx, `
		UPDATE patients SET token_status = 'Registered', token_number = NULL,
			token_generated_at = NULL, updated_at = $2
		WHERE patient_id = $1`, `
		UPDATE hospital_bindings SET token_status = NULL, token_number = NULL,
			token_generated_at = NULL, updated_at = $2
		WHERE patient_id = $1`,
		patientID, at)
}

func (r *repoPG) MarkConsultationCompleted(ctx context.Context, patientID string, at time.Time) error {
	return r.updateBoth(ctx, `
		UPDATE patients SET token_status = 'Completed', consultation_completed_at = $2, updated_at = $2
		WHERE patient_id = $1`, `
		UPDATE hospital_bindings SET token_status = 'Completed', consultation_completed_at = $2, updated_at = $2
		WHERE patient_id = $1`,
		patientID, at)
}
