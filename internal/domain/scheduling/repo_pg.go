package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/db"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/lock"
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

const scheduleCols = `schedule_id, room_id, room_number, doctor_id, doctor_name, department_id, department_name,
	date, start_time, end_time, is_recurring, recurring_type, recurring_interval, recurring_end_date,
	parent_schedule_id, status, notes, created_at, updated_at, cancelled_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	var status string
	var recType, recEnd *string
	var recInterval *int
	err := row.Scan(&s.ScheduleID, &s.RoomID, &s.RoomNumber, &s.DoctorID, &s.DoctorName, &s.DepartmentID,
		&s.DepartmentName, &s.Date, &s.StartTime, &s.EndTime, &s.IsRecurring, &recType, &recInterval, &recEnd,
		&s.ParentScheduleID, &status, &s.Notes, &s.CreatedAt, &s.UpdatedAt, &s.CancelledAt)
	if err != nil {
		return nil, err
	}
	s.Status = Status(status)
	if recType != nil {
		p := Pattern{Type: RecurrenceType(*recType)}
		if recInterval != nil {
			p.Interval = *recInterval
		}
		if recEnd != nil {
			p.EndDate = *recEnd
		}
		s.RecurringPattern = &p
	}
	return &s, nil
}

func patternArgs(p *Pattern) (recType *string, interval *int, end *string) {
	if p == nil {
		return nil, nil, nil
	}
	t := string(p.Type)
	return &t, &p.Interval, &p.EndDate
}

func (r *repoPG) LockRoom(ctx context.Context, roomID string) error {
	return db.AdvisoryLock(ctx, lock.RoomKey(roomID))
}

func (r *repoPG) CreateMany(ctx context.Context, items []*Schedule) error {
	batch := &pgx.Batch{}
	for _, s := range items {
		recType, interval, end := patternArgs(s.RecurringPattern)
		batch.Queue(`
			INSERT INTO schedules (`+scheduleCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
			s.ScheduleID, s.RoomID, s.RoomNumber, s.DoctorID, s.DoctorName, s.DepartmentID, s.DepartmentName,
			s.Date, s.StartTime, s.EndTime, s.IsRecurring, recType, interval, end,
			s.ParentScheduleID, string(s.Status), s.Notes, s.CreatedAt, s.UpdatedAt, s.CancelledAt)
	}

	tx := db.TxFromContext(ctx)
	var results pgx.BatchResults
	if tx != nil {
		results = tx.SendBatch(ctx, batch)
	} else {
		results = r.pool.SendBatch(ctx, batch)
	}
	defer results.Close()

	for _, s := range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert schedule %s: %w", s.ScheduleID, err)
		}
	}
	return nil
}

func (r *repoPG) Get(ctx context.Context, scheduleID string) (*Schedule, error) {
	s, err := scanSchedule(r.conn(ctx).QueryRow(ctx,
		`SELECT `+scheduleCols+` FROM schedules WHERE schedule_id = $1`, scheduleID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *repoPG) FindConflict(ctx context.Context, roomID, date, start, end, excludeID string) (*Schedule, error) {
	s, err := scanSchedule(r.conn(ctx).QueryRow(ctx, `
		SELECT `+scheduleCols+` FROM schedules
		WHERE room_id = $1 AND date = $2 AND status = 'Active'
			AND start_time < $4 AND end_time > $3
			AND schedule_id <> $5
		ORDER BY start_time
		LIMIT 1`, roomID, date, start, end, excludeID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find schedule conflict: %w", err)
	}
	return s, nil
}

func (r *repoPG) Update(ctx context.Context, s *Schedule) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedules SET
			doctor_id = $2, doctor_name = $3, start_time = $4, end_time = $5,
			status = $6, notes = $7, updated_at = $8, cancelled_at = $9
		WHERE schedule_id = $1`,
		s.ScheduleID, s.DoctorID, s.DoctorName, s.StartTime, s.EndTime,
		string(s.Status), s.Notes, s.UpdatedAt, s.CancelledAt)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *repoPG) Cancel(ctx context.Context, scheduleID string, at time.Time) (*Schedule, error) {
	s, err := scanSchedule(r.conn(ctx).QueryRow(ctx, `
		UPDATE schedules SET status = 'Cancelled', cancelled_at = $2, updated_at = $2
		WHERE schedule_id = $1 AND status = 'Active'
		RETURNING `+scheduleCols, scheduleID, at))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("cancel schedule: %w", err)
	}
	return s, nil
}

func (r *repoPG) List(ctx context.Context, f Filter) ([]*Schedule, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ScheduleID != "" {
		add("schedule_id = $%d", f.ScheduleID)
	}
	if f.RoomID != "" {
		add("room_id = $%d", f.RoomID)
	}
	if f.DoctorID != "" {
		add("doctor_id = $%d", f.DoctorID)
	}
	if f.DateFrom != "" {
		add("date >= $%d", f.DateFrom)
		add("date <= $%d", f.DateTo)
	} else if f.Date != "" {
		add("date = $%d", f.Date)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	q := `SELECT ` + scheduleCols + ` FROM schedules`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date, start_time, schedule_id"

	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
