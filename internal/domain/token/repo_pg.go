package token

import (
	"context"
	"fmt"
	"strings"
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

const tokenCols = `id, token_number, sequence, patient_id, patient_name, hospital_name, department, city,
	issue_date, generated_at, status, latitude, longitude, distance_meters, is_test_hospital,
	doctor_id, prescription_id, completed_at, cancelled_at`

func scanToken(row pgx.Row) (*Token, error) {
	var t Token
	var status string
	err := row.Scan(&t.ID, &t.TokenNumber, &t.Sequence, &t.PatientID, &t.PatientName, &t.HospitalName,
		&t.Department, &t.City, &t.IssueDate, &t.GeneratedAt, &status, &t.Location.Lat, &t.Location.Lng,
		&t.DistanceMeters, &t.IsTestHospital, &t.DoctorID, &t.PrescriptionID, &t.CompletedAt, &t.CancelledAt)
	if err != nil {
		return nil, err
	}
	t.Status = Status(status)
	return &t, nil
}

func (r *repoPG) NextSequence(ctx context.Context, scope, issueDate string) (int, error) {
	var seq int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO token_sequences (scope, issue_date, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (scope, issue_date)
		DO UPDATE SET last_value = token_sequences.last_value + 1
		RETURNING last_value`, scope, issueDate).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next token sequence: %w", err)
	}
	return seq, nil
}

func (r *repoPG) Create(ctx context.Context, t *Token) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO tokens (`+tokenCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		t.ID, t.TokenNumber, t.Sequence, t.PatientID, t.PatientName, t.HospitalName, t.Department, t.City,
		t.IssueDate, t.GeneratedAt, string(t.Status), t.Location.Lat, t.Location.Lng, t.DistanceMeters,
		t.IsTestHospital, t.DoctorID, t.PrescriptionID, t.CompletedAt, t.CancelledAt)
	if err != nil {
		if constraint, ok := db.UniqueViolation(err); ok {
			switch constraint {
			case "tokens_one_active_per_patient":
				return ErrAlreadyHasToken
			case "tokens_number_per_day_key", "tokens_scope_sequence_key":
				return errSequenceTaken
			}
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Token, error) {
	t, err := scanToken(r.conn(ctx).QueryRow(ctx, `
		SELECT `+tokenCols+` FROM tokens
		WHERE token_number = $1
		ORDER BY generated_at DESC LIMIT 1`, number))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}

func (r *repoPG) GetActiveByPatient(ctx context.Context, patientID string) (*Token, error) {
	t, err := scanToken(r.conn(ctx).QueryRow(ctx, `
		SELECT `+tokenCols+` FROM tokens
		WHERE patient_id = $1 AND status = 'Active'`, patientID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("get active token: %w", err)
	}
	return t, nil
}

func (r *repoPG) Complete(ctx context.Context, number, doctorID string, prescriptionID *string, at time.Time) (*Token, error) {
	t, err := scanToken(r.conn(ctx).QueryRow(ctx, `
		UPDATE tokens SET status = 'Completed', doctor_id = $2, prescription_id = $3, completed_at = $4
		WHERE id = (
			SELECT id FROM tokens
			WHERE token_number = $1 AND status = 'Active'
			ORDER BY generated_at DESC LIMIT 1
		) AND status = 'Active'
		RETURNING `+tokenCols, number, doctorID, prescriptionID, at))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTokenNotActive
		}
		return nil, fmt.Errorf("complete token: %w", err)
	}
	return t, nil
}

func (r *repoPG) Cancel(ctx context.Context, patientID, number string, at time.Time) (*Token, error) {
	t, err := scanToken(r.conn(ctx).QueryRow(ctx, `
		UPDATE tokens SET status = 'Cancelled', cancelled_at = $3
		WHERE patient_id = $1 AND token_number = $2 AND status = 'Active'
		RETURNING `+tokenCols, patientID, number, at))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrTokenNotActive
		}
		return nil, fmt.Errorf("cancel token: %w", err)
	}
	return t, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Token, int, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.HospitalName != "" {
		add("hospital_name = $%d", f.HospitalName)
	}
	if f.Department != "" {
		add("department = $%d", f.Department)
	}
	if f.Date != "" {
		add("issue_date = $%d", f.Date)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tokens`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tokens: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(`
		SELECT %s FROM tokens%s
		ORDER BY issue_date DESC, hospital_name, department, sequence
		LIMIT $%d OFFSET $%d`, tokenCols, clause, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var items []*Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan token: %w", err)
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
