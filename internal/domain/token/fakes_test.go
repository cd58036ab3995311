package token

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/patient"
)

// -- In-memory token repository enforcing the storage constraints --

type memTokens struct {
	mu       sync.Mutex
	counters map[string]int
	tokens   []*Token
	// taken forces Create to report a collision for these numbers.
	taken map[string]bool
}

func newMemTokens() *memTokens {
	return &memTokens{counters: make(map[string]int), taken: make(map[string]bool)}
}

func (m *memTokens) NextSequence(_ context.Context, scope, issueDate string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scope + "|" + issueDate
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memTokens) Create(_ context.Context, t *Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.taken[t.TokenNumber] {
		return errSequenceTaken
	}
	for _, e := range m.tokens {
		if e.Status == StatusActive && t.Status == StatusActive && e.PatientID == t.PatientID {
			return ErrAlreadyHasToken
		}
		if e.IssueDate == t.IssueDate && e.TokenNumber == t.TokenNumber {
			return errSequenceTaken
		}
		if e.IssueDate == t.IssueDate && e.HospitalName == t.HospitalName &&
			e.Department == t.Department && e.Sequence == t.Sequence {
			return errSequenceTaken
		}
	}
	cp := *t
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memTokens) latest(match func(*Token) bool) *Token {
	var found *Token
	for _, t := range m.tokens {
		if match(t) && (found == nil || !t.GeneratedAt.Before(found.GeneratedAt)) {
			found = t
		}
	}
	return found
}

func (m *memTokens) GetByNumber(_ context.Context, number string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.latest(func(t *Token) bool { return t.TokenNumber == number })
	if t == nil {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) GetActiveByPatient(_ context.Context, patientID string) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.latest(func(t *Token) bool { return t.PatientID == patientID && t.Status == StatusActive })
	if t == nil {
		return nil, ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Complete(_ context.Context, number, doctorID string, prescriptionID *string, at time.Time) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.latest(func(t *Token) bool { return t.TokenNumber == number && t.Status == StatusActive })
	if t == nil {
		return nil, ErrTokenNotActive
	}
	t.Status, t.DoctorID, t.PrescriptionID, t.CompletedAt = StatusCompleted, &doctorID, prescriptionID, &at
	cp := *t
	return &cp, nil
}

func (m *memTokens) Cancel(_ context.Context, patientID, number string, at time.Time) (*Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.latest(func(t *Token) bool {
		return t.TokenNumber == number && t.PatientID == patientID && t.Status == StatusActive
	})
	if t == nil {
		return nil, ErrTokenNotActive
	}
	t.Status, t.CancelledAt = StatusCancelled, &at
	cp := *t
	return &cp, nil
}

func (m *memTokens) List(_ context.Context, f Filter) ([]*Token, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Token
	for _, t := range m.tokens {
		if f.HospitalName != "" && t.HospitalName != f.HospitalName {
			continue
		}
		if f.Department != "" && t.Department != f.Department {
			continue
		}
		if f.Date != "" && t.IssueDate != f.Date {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	total := len(out)
	if f.Offset > total {
		f.Offset = total
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return out[f.Offset:end], total, nil
}

func (m *memTokens) all() []*Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Token, len(m.tokens))
	for i, t := range m.tokens {
		cp := *t
		out[i] = &cp
	}
	return out
}

// -- In-memory patient store --

type memPatients struct {
	mu       sync.Mutex
	patients map[string]*patient.Patient
	bindings map[string]*patient.Binding
}

func newMemPatients() *memPatients {
	return &memPatients{
		patients: make(map[string]*patient.Patient),
		bindings: make(map[string]*patient.Binding),
	}
}

func (m *memPatients) add(p *patient.Patient, b *patient.Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.PatientID] = p
	if b != nil {
		m.bindings[p.PatientID] = b
	}
}

func (m *memPatients) GetByID(_ context.Context, id string) (*patient.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPatients) GetBinding(_ context.Context, id string) (*patient.Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[id]
	if !ok {
		return nil, patient.ErrBindingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memPatients) MarkTokenGenerated(_ context.Context, id, number string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.TokenStatus, p.TokenNumber, p.TokenGeneratedAt, p.ConsultationCompletedAt = patient.TokenGenerated, &number, &at, nil
	if b, ok := m.bindings[id]; ok {
		b.TokenStatus, b.TokenNumber, b.TokenGeneratedAt = patient.TokenGenerated, &number, &at
	}
	return nil
}

func (m *memPatients) ClearToken(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.TokenStatus, p.TokenNumber, p.TokenGeneratedAt = patient.TokenRegistered, nil, nil
	if b, ok := m.bindings[id]; ok {
		b.TokenStatus, b.TokenNumber, b.TokenGeneratedAt = "", nil, nil
	}
	return nil
}

func (m *memPatients) MarkConsultationCompleted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return patient.ErrPatientNotFound
	}
	p.TokenStatus, p.ConsultationCompletedAt = patient.TokenCompleted, &at
	if b, ok := m.bindings[id]; ok {
		b.TokenStatus, b.ConsultationCompletedAt = patient.TokenCompleted, &at
	}
	return nil
}

func (m *memPatients) get(id string) *patient.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.patients[id]
	return &cp
}
