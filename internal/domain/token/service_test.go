package token

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/arpitmishra1547/Smart-Hospital-management/internal/domain/patient"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/apperr"
	"github.com/arpitmishra1547/Smart-Hospital-management/internal/platform/geo"
)

var apollo = geo.Point{Lat: 23.2, Lng: 77.4}

type harness struct {
	svc      *Service
	tokens   *memTokens
	patients *memPatients
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tokens:   newMemTokens(),
		patients: newMemPatients(),
		now:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	h.svc = NewService(h.tokens, h.patients, nil, nil, Config{
		RadiusMeters:         100,
		TestHospitalName:     "Test Hospital",
		TestHospitalDistance: 50,
	})
	h.svc.now = func() time.Time { return h.now }
	return h
}

func (h *harness) register(id, hospital, department string, at geo.Point) {
	h.patients.add(&patient.Patient{
		PatientID:    id,
		FullName:     "Patient " + id,
		HospitalName: hospital,
		Department:   department,
		Status:       patient.StatusRegistered,
		TokenStatus:  patient.TokenPending,
	}, &patient.Binding{
		PatientID:    id,
		HospitalName: hospital,
		City:         "Bhopal",
		Department:   department,
		Coordinates:  at,
	})
}

func request(id string, lat, lng float64) RequestInput {
	return RequestInput{PatientID: id, CurrentLat: &lat, CurrentLng: &lng}
}

func TestRequestToken_WithinGeofence(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)

	tok, err := h.svc.RequestToken(context.Background(), request("P1", 23.2001, 77.4001))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.TokenNumber != "APO-CAR-001" {
		t.Errorf("expected APO-CAR-001, got %s", tok.TokenNumber)
	}
	if tok.DistanceMeters < 14 || tok.DistanceMeters > 16 {
		t.Errorf("expected distance about 15m, got %v", tok.DistanceMeters)
	}
	if tok.DistanceMeters != math.Round(tok.DistanceMeters) {
		t.Errorf("expected rounded distance, got %v", tok.DistanceMeters)
	}
	if tok.IsTestHospital {
		t.Error("expected real distance check")
	}
	if tok.Status != StatusActive || tok.IssueDate != "2024-03-01" || tok.City != "Bhopal" {
		t.Errorf("unexpected token %+v", tok)
	}
	if tok.PatientName != "Patient P1" {
		t.Errorf("expected denormalized patient name, got %q", tok.PatientName)
	}

	p := h.patients.get("P1")
	if p.TokenStatus != patient.TokenGenerated || p.TokenNumber == nil || *p.TokenNumber != "APO-CAR-001" {
		t.Errorf("patient not updated: %+v", p)
	}
	b, _ := h.patients.GetBinding(context.Background(), "P1")
	if b.TokenNumber == nil || *b.TokenNumber != "APO-CAR-001" {
		t.Errorf("binding not mirrored: %+v", b)
	}
}

func TestRequestToken_TooFar(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)

	_, err := h.svc.RequestToken(context.Background(), request("P1", 23.3, 77.5))
	if !errors.Is(err, ErrTooFar) {
		t.Fatalf("expected ErrTooFar, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	want := math.Round(geo.DistanceMeters(geo.Point{Lat: 23.3, Lng: 77.5}, apollo))
	if ae.Details["distance"] != want {
		t.Errorf("expected reported distance %v, got %v", want, ae.Details["distance"])
	}
	if want <= 100 {
		t.Fatalf("fixture should be outside the geofence, got %v", want)
	}
	if apperr.Status(err) != 422 {
		t.Errorf("expected 422, got %d", apperr.Status(err))
	}
	if len(h.tokens.all()) != 0 {
		t.Error("expected no token persisted")
	}
	if p := h.patients.get("P1"); p.TokenStatus != patient.TokenPending {
		t.Errorf("expected patient untouched, got %s", p.TokenStatus)
	}
}

func TestRequestToken_RadiusBoundary(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)

	// Roughly 111 m north of the hospital.
	if _, err := h.svc.RequestToken(context.Background(), request("P1", 23.201, 77.4)); !errors.Is(err, ErrTooFar) {
		t.Errorf("expected rejection beyond radius, got %v", err)
	}
	// Roughly 89 m north.
	if _, err := h.svc.RequestToken(context.Background(), request("P1", 23.2008, 77.4)); err != nil {
		t.Errorf("expected admission within radius, got %v", err)
	}
}

func TestRequestToken_TestHospitalBypass(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Test Hospital", "General", apollo)

	tok, err := h.svc.RequestToken(context.Background(), request("P1", 10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tok.IsTestHospital || tok.DistanceMeters != 50 {
		t.Errorf("expected bypass with distance 50, got %+v", tok)
	}
	if tok.TokenNumber != "TES-GEN-001" {
		t.Errorf("expected TES-GEN-001, got %s", tok.TokenNumber)
	}
}

func TestRequestToken_BypassDisabled(t *testing.T) {
	h := newHarness(t)
	h.svc.cfg.TestHospitalName = ""
	h.register("P1", "Test Hospital", "General", apollo)

	if _, err := h.svc.RequestToken(context.Background(), request("P1", 10, 10)); !errors.Is(err, ErrTooFar) {
		t.Errorf("expected distance check without a sentinel, got %v", err)
	}
}

func TestRequestToken_Preconditions(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	h.patients.add(&patient.Patient{PatientID: "P2", TokenStatus: patient.TokenPending}, nil)

	lat, lng := 23.2, 77.4
	cases := []struct {
		name string
		in   RequestInput
		want error
	}{
		{"missing patient id", RequestInput{CurrentLat: &lat, CurrentLng: &lng}, ErrMissingField},
		{"missing latitude", RequestInput{PatientID: "P1", CurrentLng: &lng}, ErrMissingField},
		{"missing longitude", RequestInput{PatientID: "P1", CurrentLat: &lat}, ErrMissingField},
		{"latitude out of range", request("P1", 91, 77.4), ErrInvalidCoordinates},
		{"unknown patient", request("P404", 23.2, 77.4), patient.ErrPatientNotFound},
		{"no binding", request("P2", 23.2, 77.4), patient.ErrBindingNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.svc.RequestToken(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRequestToken_AlreadyHasToken(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)

	if _, err := h.svc.RequestToken(context.Background(), request("P1", 23.2, 77.4)); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := h.svc.RequestToken(context.Background(), request("P1", 23.2, 77.4))
	if !errors.Is(err, ErrAlreadyHasToken) {
		t.Fatalf("expected ErrAlreadyHasToken, got %v", err)
	}
	if apperr.Status(err) != 409 {
		t.Errorf("expected 409, got %d", apperr.Status(err))
	}
}

func TestRequestToken_ConcurrentSamePatient(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)

	const n = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes, rejected := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.RequestToken(context.Background(), request("P1", 23.2, 77.4))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyHasToken):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || rejected != n-1 {
		t.Errorf("expected 1 success and %d rejections, got %d and %d", n-1, successes, rejected)
	}
	active := 0
	for _, tok := range h.tokens.all() {
		if tok.PatientID == "P1" && tok.Status == StatusActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("expected exactly one active token, got %d", active)
	}
}

func TestRequestToken_ConcurrentSequenceUniqueness(t *testing.T) {
	h := newHarness(t)
	const n = 25
	for i := 1; i <= n; i++ {
		h.register(fmt.Sprintf("P%d", i), "Apollo Hospital", "Cardiology", apollo)
	}

	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			tok, err := h.svc.RequestToken(context.Background(), request(id, 23.2, 77.4))
			if err != nil {
				t.Errorf("request %s: %v", id, err)
				return
			}
			numbers <- tok.TokenNumber
		}(fmt.Sprintf("P%d", i))
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		if seen[num] {
			t.Errorf("duplicate token number %s", num)
		}
		seen[num] = true
	}
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("APO-CAR-%03d", i)
		if !seen[want] {
			t.Errorf("missing %s, sequence has a gap", want)
		}
	}
}

func TestRequestToken_SequenceScopes(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	h.register("P2", "Apollo Hospital", "Orthopedics", apollo)
	h.register("P3", "Apollo Hospital", "Cardiology", apollo)

	ctx := context.Background()
	t1, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))
	t2, _ := h.svc.RequestToken(ctx, request("P2", 23.2, 77.4))
	t3, _ := h.svc.RequestToken(ctx, request("P3", 23.2, 77.4))
	if t1.TokenNumber != "APO-CAR-001" || t2.TokenNumber != "APO-ORT-001" || t3.TokenNumber != "APO-CAR-002" {
		t.Errorf("unexpected numbers %s %s %s", t1.TokenNumber, t2.TokenNumber, t3.TokenNumber)
	}
}

func TestRequestToken_DayRollover(t *testing.T) {
	h := newHarness(t)
	h.svc.cfg.Location = time.FixedZone("IST", 5*3600+1800)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	h.register("P2", "Apollo Hospital", "Cardiology", apollo)
	ctx := context.Background()

	// 18:00 UTC on 1 March is 23:30 in IST.
	h.now = time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	t1, err := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	// 19:00 UTC is already 2 March in IST.
	h.now = time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	t2, err := h.svc.RequestToken(ctx, request("P2", 23.2, 77.4))
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if t1.IssueDate != "2024-03-01" || t2.IssueDate != "2024-03-02" {
		t.Errorf("unexpected issue dates %s and %s", t1.IssueDate, t2.IssueDate)
	}
	if t2.TokenNumber != "APO-CAR-001" {
		t.Errorf("expected sequence to restart on a new day, got %s", t2.TokenNumber)
	}
}

func TestRequestToken_RetriesTakenNumber(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	h.tokens.taken["APO-CAR-001"] = true

	tok, err := h.svc.RequestToken(context.Background(), request("P1", 23.2, 77.4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.TokenNumber != "APO-CAR-002" {
		t.Errorf("expected retry to allocate APO-CAR-002, got %s", tok.TokenNumber)
	}
}

func TestRequestToken_RetryExhausted(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	for i := 1; i <= maxAllocAttempts; i++ {
		h.tokens.taken[fmt.Sprintf("APO-CAR-%03d", i)] = true
	}

	if _, err := h.svc.RequestToken(context.Background(), request("P1", 23.2, 77.4)); !errors.Is(err, ErrSequenceContention) {
		t.Fatalf("expected ErrSequenceContention, got %v", err)
	}
	if p := h.patients.get("P1"); p.TokenStatus != patient.TokenPending {
		t.Errorf("expected patient untouched, got %s", p.TokenStatus)
	}
}

func TestCompleteToken(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	ctx := context.Background()
	issued, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))

	rx := "RX-1"
	done, err := h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: issued.TokenNumber, DoctorID: "D1", PrescriptionID: &rx})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done.Status != StatusCompleted || done.CompletedAt == nil {
		t.Errorf("expected completed token, got %+v", done)
	}
	if done.DoctorID == nil || *done.DoctorID != "D1" || done.PrescriptionID == nil || *done.PrescriptionID != "RX-1" {
		t.Errorf("expected doctor and prescription recorded, got %+v", done)
	}
	p := h.patients.get("P1")
	if p.TokenStatus != patient.TokenCompleted || p.ConsultationCompletedAt == nil {
		t.Errorf("patient not completed: %+v", p)
	}

	_, err = h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: issued.TokenNumber, DoctorID: "D1"})
	if !errors.Is(err, ErrTokenNotActive) {
		t.Errorf("expected ErrTokenNotActive on second completion, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("expected not-found kind, got %s", apperr.KindOf(err))
	}
}

func TestCompleteToken_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.svc.CompleteToken(ctx, CompleteInput{DoctorID: "D1"}); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected missing token number, got %v", err)
	}
	if _, err := h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: "APO-CAR-001"}); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected missing doctor id, got %v", err)
	}
	if _, err := h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: "APO-CAR-404", DoctorID: "D1"}); !errors.Is(err, ErrTokenNotActive) {
		t.Errorf("expected unknown token to be not found, got %v", err)
	}
}

func TestCancelToken_ThenRerequest(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	ctx := context.Background()
	first, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))

	cancelled, err := h.svc.CancelToken(ctx, CancelInput{PatientID: "P1", TokenNumber: first.TokenNumber})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("expected cancelled token, got %+v", cancelled)
	}
	p := h.patients.get("P1")
	if p.TokenStatus != patient.TokenRegistered || p.TokenNumber != nil {
		t.Errorf("expected patient reset to Registered, got %+v", p)
	}

	second, err := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))
	if err != nil {
		t.Fatalf("re-request: %v", err)
	}
	if second.TokenNumber == first.TokenNumber {
		t.Errorf("expected a new token number, got %s again", second.TokenNumber)
	}
	if second.TokenNumber != "APO-CAR-002" {
		t.Errorf("expected APO-CAR-002, got %s", second.TokenNumber)
	}

	_, err = h.svc.CancelToken(ctx, CancelInput{PatientID: "P1", TokenNumber: first.TokenNumber})
	if !errors.Is(err, ErrTokenNotActive) {
		t.Errorf("expected cancelling a cancelled token to fail, got %v", err)
	}
}

func TestCancelToken_Failures(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	h.register("P2", "Apollo Hospital", "Cardiology", apollo)
	ctx := context.Background()
	tok, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))

	if _, err := h.svc.CancelToken(ctx, CancelInput{PatientID: "P2", TokenNumber: tok.TokenNumber}); !errors.Is(err, ErrTokenNotOwned) {
		t.Errorf("expected ErrTokenNotOwned, got %v", err)
	}
	if _, err := h.svc.CancelToken(ctx, CancelInput{PatientID: "P1", TokenNumber: "APO-CAR-999"}); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
	if _, err := h.svc.CancelToken(ctx, CancelInput{PatientID: "P404", TokenNumber: tok.TokenNumber}); !errors.Is(err, patient.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}
	if _, err := h.svc.CancelToken(ctx, CancelInput{PatientID: "P1"}); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}

	if _, err := h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: tok.TokenNumber, DoctorID: "D1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := h.svc.CancelToken(ctx, CancelInput{PatientID: "P1", TokenNumber: tok.TokenNumber}); !errors.Is(err, ErrTokenNotActive) {
		t.Errorf("expected completed token to stay completed, got %v", err)
	}
}

func TestCompleteAndCancel_SingleWinner(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness(t)
		h.register("P1", "Apollo Hospital", "Cardiology", apollo)
		ctx := context.Background()
		tok, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))

		var wg sync.WaitGroup
		var completeErr, cancelErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, completeErr = h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: tok.TokenNumber, DoctorID: "D1"})
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = h.svc.CancelToken(ctx, CancelInput{PatientID: "P1", TokenNumber: tok.TokenNumber})
		}()
		wg.Wait()

		if (completeErr == nil) == (cancelErr == nil) {
			t.Fatalf("expected exactly one winner, got complete=%v cancel=%v", completeErr, cancelErr)
		}
		final, _ := h.tokens.GetByNumber(ctx, tok.TokenNumber)
		p := h.patients.get("P1")
		if final.Status == StatusCompleted && p.TokenStatus != patient.TokenCompleted {
			t.Errorf("patient state %s disagrees with completed token", p.TokenStatus)
		}
		if final.Status == StatusCancelled && p.TokenStatus != patient.TokenRegistered {
			t.Errorf("patient state %s disagrees with cancelled token", p.TokenStatus)
		}
	}
}

func TestRequestToken_AfterCompletion(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	ctx := context.Background()
	tok, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))
	if _, err := h.svc.CompleteToken(ctx, CompleteInput{TokenNumber: tok.TokenNumber, DoctorID: "D1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4)); !errors.Is(err, ErrAlreadyHasToken) {
		t.Errorf("expected same-day request after completion to be rejected, got %v", err)
	}

	h.now = h.now.Add(24 * time.Hour)
	next, err := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))
	if err != nil {
		t.Fatalf("expected next-day request to succeed, got %v", err)
	}
	if next.IssueDate != "2024-03-02" || next.TokenNumber != "APO-CAR-001" {
		t.Errorf("unexpected next-day token %s on %s", next.TokenNumber, next.IssueDate)
	}
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	h := newHarness(t)
	h.register("P1", "Apollo Hospital", "Cardiology", apollo)
	ctx := context.Background()
	issued, _ := h.svc.RequestToken(ctx, request("P1", 23.2, 77.4))

	tok, p, err := h.svc.VerifyToken(ctx, issued.TokenNumber)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.PatientID != "P1" || p.PatientID != "P1" || p.FullName != "Patient P1" {
		t.Errorf("unexpected verify result %+v %+v", tok, p)
	}

	if _, _, err := h.svc.VerifyToken(ctx, "APO-CAR-404"); !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
	if _, _, err := h.svc.VerifyToken(ctx, " "); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestVerifyToken_OrphanedToken(t *testing.T) {
	h := newHarness(t)
	h.tokens.tokens = append(h.tokens.tokens, &Token{TokenNumber: "APO-CAR-001", PatientID: "gone", Status: StatusActive})

	if _, _, err := h.svc.VerifyToken(context.Background(), "APO-CAR-001"); !errors.Is(err, ErrPatientMissing) {
		t.Errorf("expected ErrPatientMissing, got %v", err)
	}
}

func TestListTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("P%d", i)
		h.register(id, "Apollo Hospital", "Cardiology", apollo)
		if _, err := h.svc.RequestToken(ctx, request(id, 23.2, 77.4)); err != nil {
			t.Fatalf("request %s: %v", id, err)
		}
	}

	items, total, err := h.svc.ListTokens(ctx, Filter{HospitalName: "Apollo Hospital", Date: "2024-03-01", Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(items) != 2 || items[0].Sequence != 1 {
		t.Errorf("unexpected page: total=%d len=%d", total, len(items))
	}

	if _, _, err := h.svc.ListTokens(ctx, Filter{Date: "01-03-2024"}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected invalid date to be rejected, got %v", err)
	}
	if _, _, err := h.svc.ListTokens(ctx, Filter{Status: "Waiting"}); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected invalid status to be rejected, got %v", err)
	}
}
