package patient

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/apperr"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/geo"
)

// -- In-memory repository --

type memRepo struct {
	mu       sync.Mutex
	patients map[string]*Patient
	bindings map[string]*Binding
}

func newMemRepo() *memRepo {
	return &memRepo{patients: make(map[string]*Patient), bindings: make(map[string]*Binding)}
}

func (m *memRepo) Create(_ context.Context, p *Patient, b *Binding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.patients {
		if existing.MobileNumber == p.MobileNumber {
			return ErrMobileExists
		}
		if existing.NationalID == p.NationalID {
			return ErrNationalIDExists
		}
	}
	cp, cb := *p, *b
	m.patients[p.PatientID] = &cp
	m.bindings[b.PatientID] = &cb
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memRepo) GetByMobile(_ context.Context, mobile string) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.MobileNumber == mobile {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *memRepo) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	_, err := m.GetByMobile(ctx, mobile)
	return err == nil, nil
}

func (m *memRepo) ExistsByNationalID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.patients {
		if p.NationalID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*Patient
	for _, p := range m.patients {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memRepo) GetBinding(_ context.Context, id string) (*Binding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bindings[id]
	if !ok {
		return nil, ErrBindingNotFound
	}
	cb := *b
	return &cb, nil
}

func (m *memRepo) MarkTokenGenerated(_ context.Context, id, number string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	p.TokenStatus, p.TokenNumber, p.TokenGeneratedAt = TokenGenerated, &number, &at
	return nil
}

func (m *memRepo) ClearToken(_ context.Context, id string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	p.TokenStatus, p.TokenNumber, p.TokenGeneratedAt = TokenRegistered, nil, nil
	return nil
}

func (m *memRepo) MarkConsultationCompleted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	p.TokenStatus, p.ConsultationCompletedAt = TokenCompleted, &at
	return nil
}

// -- Helpers --

func validInput() RegisterInput {
	return RegisterInput{
		FullName:            "Asha Verma",
		DateOfBirth:         "1990-04-12",
		Age:                 34,
		Gender:              "Female",
		MobileNumber:        "9876543210",
		NationalID:          "123412341234",
		Address:             "12 MG Road",
		City:                "Bhopal",
		HospitalName:        "Apollo Hospital",
		Department:          "Cardiology",
		HospitalCoordinates: &geo.Point{Lat: 23.2, Lng: 77.4},
	}
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

// -- Tests --

func TestRegister_Success(t *testing.T) {
	svc, repo := newTestService()
	p, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != StatusRegistered {
		t.Errorf("expected status Registered, got %s", p.Status)
	}
	if p.TokenStatus != TokenPending {
		t.Errorf("expected token status %q, got %q", TokenPending, p.TokenStatus)
	}
	if len(p.PatientID) == 0 || p.PatientID[0] != 'P' {
		t.Errorf("unexpected patient id %q", p.PatientID)
	}

	b, err := repo.GetBinding(context.Background(), p.PatientID)
	if err != nil {
		t.Fatalf("binding not created: %v", err)
	}
	if b.Coordinates != (geo.Point{Lat: 23.2, Lng: 77.4}) {
		t.Errorf("unexpected binding coordinates %+v", b.Coordinates)
	}
	if b.HospitalName != "Apollo Hospital" || b.Department != "Cardiology" || b.City != "Bhopal" {
		t.Errorf("binding fields not mirrored: %+v", b)
	}
}

func TestRegister_TrimsInput(t *testing.T) {
	svc, _ := newTestService()
	in := validInput()
	in.HospitalName = "  Apollo Hospital "
	p, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.HospitalName != "Apollo Hospital" {
		t.Errorf("expected trimmed hospital name, got %q", p.HospitalName)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"full name", func(in *RegisterInput) { in.FullName = " " }, "fullName"},
		{"mobile", func(in *RegisterInput) { in.MobileNumber = "" }, "mobileNumber"},
		{"national id", func(in *RegisterInput) { in.NationalID = "" }, "aadhaarNumber"},
		{"department", func(in *RegisterInput) { in.Department = "" }, "department"},
		{"age", func(in *RegisterInput) { in.Age = 0 }, "age"},
		{"coordinates", func(in *RegisterInput) { in.HospitalCoordinates = nil }, "hospitalCoordinates"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestService()
			in := validInput()
			tc.edit(&in)
			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected missing field error, got %v", err)
			}
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Details["field"] != tc.field {
				t.Errorf("expected field %q in details, got %v", tc.field, err)
			}
			if apperr.KindOf(err) != apperr.KindInvalidInput {
				t.Errorf("expected invalid input kind, got %s", apperr.KindOf(err))
			}
		})
	}
}

func TestRegister_InvalidFields(t *testing.T) {
	svc, _ := newTestService()

	in := validInput()
	in.HospitalCoordinates = &geo.Point{Lat: 95, Lng: 77.4}
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidField) {
		t.Errorf("expected invalid coordinates to be rejected, got %v", err)
	}

	in = validInput()
	in.DateOfBirth = "12/04/1990"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrInvalidField) {
		t.Errorf("expected invalid date of birth to be rejected, got %v", err)
	}
}

func TestRegister_Duplicates(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Register(context.Background(), validInput()); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	in := validInput()
	in.NationalID = "999999999999"
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrMobileExists) {
		t.Errorf("expected ErrMobileExists, got %v", err)
	}

	in = validInput()
	in.MobileNumber = "9000000000"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, ErrNationalIDExists) {
		t.Errorf("expected ErrNationalIDExists, got %v", err)
	}
	if apperr.Status(err) != 409 {
		t.Errorf("expected 409, got %d", apperr.Status(err))
	}
}

func TestFindByMobile(t *testing.T) {
	svc, _ := newTestService()
	registered, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	p, ok, err := svc.FindByMobile(context.Background(), " 9876543210 ")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}
	if p.PatientID != registered.PatientID {
		t.Errorf("expected %s, got %s", registered.PatientID, p.PatientID)
	}

	_, ok, err = svc.FindByMobile(context.Background(), "1111111111")
	if err != nil || ok {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if _, _, err := svc.FindByMobile(context.Background(), ""); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected missing field for empty mobile, got %v", err)
	}
}

func TestGet(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Get(context.Background(), "P-unknown"); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestList(t *testing.T) {
	svc, _ := newTestService()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, mobile := range []string{"9000000001", "9000000002", "9000000003"} {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		in := validInput()
		in.MobileNumber = mobile
		in.NationalID = "ID" + mobile
		if _, err := svc.Register(context.Background(), in); err != nil {
			t.Fatalf("register %s: %v", mobile, err)
		}
	}

	items, total, err := svc.List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(items), total)
	}
	if items[0].MobileNumber != "9000000003" {
		t.Errorf("expected newest first, got %s", items[0].MobileNumber)
	}
}
