package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/apperr"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/db"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/ident"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/lock"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/telemetry"
)

const defaultReassignNote = "Emergency reassignment"

type Service struct {
	repo         Repository
	locker       lock.Locker
	tx           db.TxRunner
	metrics      *telemetry.Metrics
	maxInstances int
	now          func() time.Time
	newID        func() string
}

func NewService(repo Repository, locker lock.Locker, tx db.TxRunner, maxInstances int) *Service {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if tx == nil {
		tx = db.NoTx{}
	}
	if maxInstances <= 0 {
		maxInstances = 366
	}
	return &Service{
		repo:         repo,
		locker:       locker,
		tx:           tx,
		maxInstances: maxInstances,
		now:          time.Now,
		newID:        ident.ScheduleID,
	}
}

func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// inRoom runs fn holding the room's keyed lock and, where supported, a
// storage-level lock in the same unit of work.
func (s *Service) inRoom(ctx context.Context, roomID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, lock.RoomKey(roomID))
	if err != nil {
		return err
	}
	defer unlock()
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockRoom(ctx, roomID); err != nil {
			return err
		}
		return fn(ctx)
	})
}

func (s *Service) conflict(ctx context.Context, existing *Schedule) error {
	s.metrics.ScheduleConflict()
	zerolog.Ctx(ctx).Info().
		Str("room_id", existing.RoomID).
		Str("date", existing.Date).
		Str("conflicting_schedule", existing.ScheduleID).
		Msg("schedule conflict rejected")

	room := existing.RoomNumber
	if room == "" {
		room = existing.RoomID
	}
	return ErrTimeConflict.
		Withf("Time conflict: Room %s is already scheduled from %s to %s",
			room, existing.StartTime, existing.EndTime).
		With("conflictingScheduleId", existing.ScheduleID).
		With("conflictingDate", existing.Date).
		With("conflictingStart", existing.StartTime).
		With("conflictingEnd", existing.EndTime)
}

// CreateSchedule books the slot and every instance of its recurring pattern.
// Any conflicting instance rejects the whole batch.
func (s *Service) CreateSchedule(ctx context.Context, in CreateInput) (*CreateResult, error) {
	in = trimCreate(in)
	for _, f := range []struct{ name, value string }{
		{"roomId", in.RoomID},
		{"doctorId", in.DoctorID},
		{"date", in.Date},
		{"startTime", in.StartTime},
		{"endTime", in.EndTime},
	} {
		if f.value == "" {
			return nil, missing(f.name)
		}
	}
	if _, err := parseDate("date", in.Date); err != nil {
		return nil, err
	}
	if err := checkTimes(in.StartTime, in.EndTime); err != nil {
		return nil, err
	}

	var dates []string
	var pattern *Pattern
	if in.IsRecurring {
		if in.RecurringPattern == nil {
			return nil, missing("recurringPattern")
		}
		p := *in.RecurringPattern
		p.Type = RecurrenceType(strings.ToLower(strings.TrimSpace(string(p.Type))))
		p.EndDate = strings.TrimSpace(p.EndDate)
		var err error
		if dates, err = Expand(in.Date, p, s.maxInstances); err != nil {
			return nil, err
		}
		pattern = &p
	}

	now := s.now().UTC()
	base := &Schedule{
		ScheduleID:       s.newID(),
		RoomID:           in.RoomID,
		RoomNumber:       in.RoomNumber,
		DoctorID:         in.DoctorID,
		DoctorName:       in.DoctorName,
		DepartmentID:     in.DepartmentID,
		DepartmentName:   in.DepartmentName,
		Date:             in.Date,
		StartTime:        in.StartTime,
		EndTime:          in.EndTime,
		IsRecurring:      in.IsRecurring,
		RecurringPattern: pattern,
		Status:           StatusActive,
		Notes:            in.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	batch := []*Schedule{base}
	for _, d := range dates {
		inst := *base
		inst.ScheduleID = s.newID()
		inst.Date = d
		parent := base.ScheduleID
		inst.ParentScheduleID = &parent
		batch = append(batch, &inst)
	}

	err := s.inRoom(ctx, in.RoomID, func(ctx context.Context) error {
		for _, item := range batch {
			existing, err := s.repo.FindConflict(ctx, item.RoomID, item.Date, item.StartTime, item.EndTime, "")
			if err != nil {
				return err
			}
			if existing != nil {
				return s.conflict(ctx, existing)
			}
		}
		return s.repo.CreateMany(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("schedule_id", base.ScheduleID).
		Str("room_id", base.RoomID).
		Str("date", base.Date).
		Int("instances", len(dates)).
		Msg("schedule created")
	return &CreateResult{Schedule: base, Instances: batch[1:]}, nil
}

// UpdateSchedule applies patch and re-checks the room when an Active
// schedule's times change. Cancelled schedules cannot be reactivated.
func (s *Service) UpdateSchedule(ctx context.Context, patch Patch) (*Schedule, error) {
	patch.ScheduleID = strings.TrimSpace(patch.ScheduleID)
	if patch.ScheduleID == "" {
		return nil, missing("scheduleId")
	}
	current, err := s.repo.Get(ctx, patch.ScheduleID)
	if err != nil {
		return nil, err
	}

	var updated *Schedule
	err = s.inRoom(ctx, current.RoomID, func(ctx context.Context) error {
		sch, err := s.repo.Get(ctx, patch.ScheduleID)
		if err != nil {
			return err
		}
		wasActive := sch.Status == StatusActive
		timesChanged, err := applyPatch(sch, patch)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if wasActive && sch.Status == StatusCancelled {
			sch.CancelledAt = &now
		}
		if sch.Status == StatusActive && timesChanged {
			existing, err := s.repo.FindConflict(ctx, sch.RoomID, sch.Date, sch.StartTime, sch.EndTime, sch.ScheduleID)
			if err != nil {
				return err
			}
			if existing != nil {
				return s.conflict(ctx, existing)
			}
		}
		sch.UpdatedAt = now
		if err := s.repo.Update(ctx, sch); err != nil {
			return err
		}
		updated = sch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyPatch(sch *Schedule, p Patch) (timesChanged bool, err error) {
	start, end := sch.StartTime, sch.EndTime
	if p.StartTime != nil && strings.TrimSpace(*p.StartTime) != "" {
		start = strings.TrimSpace(*p.StartTime)
	}
	if p.EndTime != nil && strings.TrimSpace(*p.EndTime) != "" {
		end = strings.TrimSpace(*p.EndTime)
	}
	if start != sch.StartTime || end != sch.EndTime {
		if err := checkTimes(start, end); err != nil {
			return false, err
		}
		timesChanged = true
	}

	if p.Status != nil && *p.Status != "" {
		next := *p.Status
		if !next.Valid() {
			return false, ErrInvalidStatus.Withf("Invalid status %q", next)
		}
		if sch.Status == StatusCancelled && next == StatusActive {
			return false, ErrInvalidStatus.Withf("Cancelled schedules cannot be reactivated")
		}
		sch.Status = next
	}
	if p.Notes != nil {
		sch.Notes = *p.Notes
	}
	sch.StartTime, sch.EndTime = start, end
	return timesChanged, nil
}

// EmergencyReassign swaps the doctor on an Active schedule without touching
// the room or the time.
func (s *Service) EmergencyReassign(ctx context.Context, in ReassignInput) (*Schedule, error) {
	in.ScheduleID = strings.TrimSpace(in.ScheduleID)
	in.NewDoctorID = strings.TrimSpace(in.NewDoctorID)
	if in.ScheduleID == "" {
		return nil, missing("scheduleId")
	}
	if in.NewDoctorID == "" {
		return nil, missing("newDoctorId")
	}
	current, err := s.repo.Get(ctx, in.ScheduleID)
	if err != nil {
		return nil, err
	}

	var updated *Schedule
	err = s.inRoom(ctx, current.RoomID, func(ctx context.Context) error {
		sch, err := s.repo.Get(ctx, in.ScheduleID)
		if err != nil {
			return err
		}
		if sch.Status != StatusActive {
			return ErrScheduleNotActive
		}
		previous := sch.DoctorID
		sch.DoctorID = in.NewDoctorID
		sch.DoctorName = strings.TrimSpace(in.NewDoctorName)
		sch.Notes = defaultReassignNote
		if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
			sch.Notes = *in.Notes
		}
		sch.UpdatedAt = s.now().UTC()
		if err := s.repo.Update(ctx, sch); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().
			Str("schedule_id", sch.ScheduleID).
			Str("from_doctor", previous).
			Str("to_doctor", sch.DoctorID).
			Msg("schedule reassigned")
		updated = sch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkUpdate applies each patch on its own. Patches that name unknown
// schedules, carry invalid fields or conflict are skipped; storage failures
// abort the batch.
func (s *Service) BulkUpdate(ctx context.Context, patches []Patch) (int, error) {
	if len(patches) == 0 {
		return 0, missing("schedules")
	}
	modified := 0
	for _, p := range patches {
		_, err := s.UpdateSchedule(ctx, p)
		if err == nil {
			modified++
			continue
		}
		if apperr.KindOf(err) == apperr.KindInternal {
			return modified, err
		}
		zerolog.Ctx(ctx).Debug().Err(err).Str("schedule_id", p.ScheduleID).Msg("bulk update item skipped")
	}
	return modified, nil
}

// RemoveSchedule cancels the schedule. The record stays for audit.
func (s *Service) RemoveSchedule(ctx context.Context, scheduleID string) (*Schedule, error) {
	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" {
		return nil, missing("scheduleId")
	}
	current, err := s.repo.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusActive {
		return nil, ErrScheduleNotFound
	}

	var removed *Schedule
	err = s.inRoom(ctx, current.RoomID, func(ctx context.Context) error {
		sch, err := s.repo.Cancel(ctx, scheduleID, s.now().UTC())
		if err != nil {
			return err
		}
		removed = sch
		return nil
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("schedule_id", scheduleID).Msg("schedule removed")
	return removed, nil
}

// ListSchedules returns matching schedules ordered by date then start time.
func (s *Service) ListSchedules(ctx context.Context, f Filter) ([]*Schedule, error) {
	if f.Week != "" {
		from, to, err := WeekRange(strings.TrimSpace(f.Week))
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	} else {
		f.DateFrom, f.DateTo = "", ""
		if f.Date != "" {
			if _, err := parseDate("date", f.Date); err != nil {
				return nil, err
			}
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidStatus.Withf("Invalid status %q", f.Status)
	}
	return s.repo.List(ctx, f)
}

func trimCreate(in CreateInput) CreateInput {
	in.RoomID = strings.TrimSpace(in.RoomID)
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	in.DoctorName = strings.TrimSpace(in.DoctorName)
	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	in.DepartmentName = strings.TrimSpace(in.DepartmentName)
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	in.EndTime = strings.TrimSpace(in.EndTime)
	return in
}

func missing(field string) error {
	return ErrMissingField.Withf("Missing required field: %s", field).With("field", field)
}
