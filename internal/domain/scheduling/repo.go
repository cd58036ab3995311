package scheduling

import (
	"context"
	"time"
)

// Repository persists schedules. Writes for one room are expected to run
// under LockRoom inside the same unit of work.
type Repository interface {
	// LockRoom serializes bookings for roomID until the unit of work ends.
	// Stores without transactions rely on the caller's keyed lock.
	LockRoom(ctx context.Context, roomID string) error
	CreateMany(ctx context.Context, items []*Schedule) error
	Get(ctx context.Context, scheduleID string) (*Schedule, error)
	// FindConflict returns the earliest Active booking of roomID on date
	// overlapping [start, end), ignoring excludeID. It returns nil when the
	// slot is free.
	FindConflict(ctx context.Context, roomID, date, start, end, excludeID string) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	// Cancel soft-deletes an Active schedule and returns ErrScheduleNotFound
	// when none matches.
	Cancel(ctx context.Context, scheduleID string, at time.Time) (*Schedule, error)
	List(ctx context.Context, f Filter) ([]*Schedule, error)
}
