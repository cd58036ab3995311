package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memRepo struct {
	mu        sync.Mutex
	schedules map[string]*Schedule
	// delay widens the window between conflict check and insert.
	delay time.Duration
}

func newMemRepo() *memRepo {
	return &memRepo{schedules: make(map[string]*Schedule)}
}

func (m *memRepo) LockRoom(context.Context, string) error { return nil }

func (m *memRepo) CreateMany(_ context.Context, items []*Schedule) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range items {
		cp := *s
		m.schedules[s.ScheduleID] = &cp
	}
	return nil
}

func (m *memRepo) Get(_ context.Context, id string) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrScheduleNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) FindConflict(_ context.Context, roomID, date, start, end, excludeID string) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *Schedule
	for _, s := range m.schedules {
		if s.Status != StatusActive || s.ScheduleID == excludeID || !s.Overlaps(roomID, date, start, end) {
			continue
		}
		if found == nil || s.StartTime < found.StartTime {
			found = s
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (m *memRepo) Update(_ context.Context, s *Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ScheduleID]; !ok {
		return ErrScheduleNotFound
	}
	cp := *s
	m.schedules[s.ScheduleID] = &cp
	return nil
}

func (m *memRepo) Cancel(_ context.Context, id string, at time.Time) (*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok || s.Status != StatusActive {
		return nil, ErrScheduleNotFound
	}
	s.Status = StatusCancelled
	s.CancelledAt = &at
	s.UpdatedAt = at
	cp := *s
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f Filter) ([]*Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Schedule
	for _, s := range m.schedules {
		switch {
		case f.ScheduleID != "" && s.ScheduleID != f.ScheduleID,
			f.RoomID != "" && s.RoomID != f.RoomID,
			f.DoctorID != "" && s.DoctorID != f.DoctorID,
			f.Status != "" && s.Status != f.Status:
			continue
		}
		if f.DateFrom != "" || f.DateTo != "" {
			if s.Date < f.DateFrom || s.Date > f.DateTo {
				continue
			}
		} else if f.Date != "" && s.Date != f.Date {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ScheduleID < out[j].ScheduleID
	})
	return out, nil
}

func (m *memRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.schedules)
}
