package appointment

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

// -- Mock repository --

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
	seq   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	m.seq++
	n := m.seq
	a.AppointmentNumber = &n
	a.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.ClinicID != clinicID {
		return nil, apperr.E(apperr.ErrNotFound, "appointment %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	existing, ok := m.appts[a.ID]
	if !ok || existing.ClinicID != a.ClinicID {
		return apperr.E(apperr.ErrNotFound, "appointment %s not found", a.ID)
	}
	a.UpdatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, clinicID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.ClinicID == clinicID && m.matches(a, f) {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListWaiting(_ context.Context, clinicID uuid.UUID, f Filters) ([]*Appointment, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.ClinicID == clinicID && a.Status.Waiting() && m.matches(a, f) {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].AppointmentTime, result[j].AppointmentTime
		switch {
		case ti == nil && tj == nil:
		case ti == nil:
			return false
		case tj == nil:
			return true
		case !ti.Equal(*tj):
			return ti.Before(*tj)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *mockRepo) matches(a *Appointment, f Filters) bool {
	if f.RoomID != nil && (a.RoomID == nil || *a.RoomID != *f.RoomID) {
		return false
	}
	if f.DoctorID != nil && (a.DoctorID == nil || *a.DoctorID != *f.DoctorID) {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.Date != nil {
		if a.AppointmentTime == nil {
			return false
		}
		y1, m1, d1 := a.AppointmentTime.Date()
		y2, m2, d2 := f.Date.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}

type mockNotifier struct {
	calls []uuid.UUID
}

func (m *mockNotifier) QueueChanged(_ context.Context, clinicID uuid.UUID) {
	m.calls = append(m.calls, clinicID)
}

// -- Tests --

func TestCreateRequiresPatient(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListDateFilter(t *testing.T) {
	svc := NewService(newMockRepo(), &mockNotifier{})
	clinicID := uuid.New()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	morning := day.Add(9 * time.Hour)
	nextDay := day.Add(33 * time.Hour)

	onDay, err := svc.Create(context.Background(), clinicID, CreateInput{
		PatientID:       uuid.New(),
		AppointmentTime: &morning,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(context.Background(), clinicID, CreateInput{
		PatientID:       uuid.New(),
		AppointmentTime: &nextDay,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No appointment time, so no date to match.
	if _, err := svc.Create(context.Background(), clinicID, CreateInput{
		PatientID: uuid.New(),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, total, err := svc.List(context.Background(), clinicID, Filters{Date: &day}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(result) != 1 {
		t.Fatalf("expected exactly the day's appointment, got %d", total)
	}
	if result[0].ID != onDay.ID {
		t.Fatal("expected the appointment scheduled on the filter date")
	}
}

func TestCreateStartsScheduled(t *testing.T) {
	notifier := &mockNotifier{}
	svc := NewService(newMockRepo(), notifier)
	clinicID := uuid.New()

	a, err := svc.Create(context.Background(), clinicID, CreateInput{PatientID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", a.Status)
	}
	if a.CheckinTime != nil || a.StartTime != nil || a.EndTime != nil {
		t.Error("expected lifecycle timestamps unset on create")
	}
	if a.Source != SourceWalkIn {
		t.Errorf("expected default source WALK_IN, got %s", a.Source)
	}
	if a.AppointmentNumber == nil {
		t.Error("expected an appointment number")
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != clinicID {
		t.Errorf("expected one queue notification for %s, got %v", clinicID, notifier.calls)
	}
}

func TestCreateRejectsUnknownSource(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		PatientID: uuid.New(),
		Source:    Source("CARRIER_PIGEON"),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLifecycleEndToEnd(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	clinicID := uuid.New()
	ctx := context.Background()

	a, err := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err = svc.Transition(ctx, clinicID, a.ID, StatusCheckedIn, nil)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if a.Status != StatusCheckedIn || a.CheckinTime == nil {
		t.Fatal("expected CHECKED_IN with checkin_time set")
	}
	if a.StartTime != nil || a.EndTime != nil {
		t.Fatal("expected start_time and end_time still unset")
	}

	a, err = svc.Transition(ctx, clinicID, a.ID, StatusInProgress, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if a.Status != StatusInProgress || a.StartTime == nil {
		t.Fatal("expected IN_PROGRESS with start_time set")
	}

	a, err = svc.Transition(ctx, clinicID, a.ID, StatusCompleted, nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != StatusCompleted || a.EndTime == nil {
		t.Fatal("expected COMPLETED with end_time set")
	}

	// Terminal: nothing moves from COMPLETED.
	for _, target := range []Status{StatusScheduled, StatusCheckedIn, StatusInProgress, StatusCancelled, StatusNoShow} {
		if _, err := svc.Transition(ctx, clinicID, a.ID, target, nil); !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Errorf("COMPLETED -> %s: expected ErrInvalidTransition, got %v", target, err)
		}
	}
}

func TestTransitionRejectsIllegalJump(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	clinicID := uuid.New()
	ctx := context.Background()

	a, _ := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New()})

	_, err := svc.Transition(ctx, clinicID, a.ID, StatusCompleted, nil)
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	clinicID := uuid.New()
	ctx := context.Background()

	a, _ := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New()})

	_, err := svc.Transition(ctx, clinicID, a.ID, Status("ARCHIVED"), nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTransitionCrossTenantIsNotFound(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	ctx := context.Background()

	a, _ := svc.Create(ctx, uuid.New(), CreateInput{PatientID: uuid.New()})

	_, err := svc.Transition(ctx, uuid.New(), a.ID, StatusCheckedIn, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign clinic, got %v", err)
	}
}

func TestCancelAppendsReason(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	clinicID := uuid.New()
	ctx := context.Background()

	note := "prefers mornings"
	a, _ := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New(), Note: &note})

	reason := "patient called"
	a, err := svc.Transition(ctx, clinicID, a.ID, StatusCancelled, &reason)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if a.Note == nil || *a.Note != "prefers mornings; cancelled: patient called" {
		t.Errorf("unexpected note: %v", a.Note)
	}
}

func TestCheckinTimeSetOnce(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	clinicID := uuid.New()
	ctx := context.Background()

	a, _ := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New()})
	a, err := svc.Transition(ctx, clinicID, a.ID, StatusCheckedIn, nil)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	first := *a.CheckinTime

	// A second check-in is an illegal transition; the stored timestamp
	// must survive untouched.
	if _, err := svc.Transition(ctx, clinicID, a.ID, StatusCheckedIn, nil); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	stored, _ := repo.GetByID(ctx, clinicID, a.ID)
	if stored.CheckinTime == nil || !stored.CheckinTime.Equal(first) {
		t.Error("checkin_time must not change after first entry")
	}
}

func TestUpdateDoesNotTouchStatus(t *testing.T) {
	repo := newMockRepo()
	notifier := &mockNotifier{}
	svc := NewService(repo, notifier)
	clinicID := uuid.New()
	ctx := context.Background()

	a, _ := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New()})
	notifier.calls = nil

	roomID := uuid.New()
	updated, err := svc.Update(ctx, clinicID, a.ID, UpdateInput{RoomID: &roomID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusScheduled {
		t.Errorf("expected status unchanged, got %s", updated.Status)
	}
	if updated.RoomID == nil || *updated.RoomID != roomID {
		t.Error("expected room_id updated")
	}
	if len(notifier.calls) != 1 {
		t.Errorf("expected queue notification on room move, got %d", len(notifier.calls))
	}
}

func TestUpdateNoteOnlySkipsQueueNotification(t *testing.T) {
	notifier := &mockNotifier{}
	svc := NewService(newMockRepo(), notifier)
	clinicID := uuid.New()
	ctx := context.Background()

	a, _ := svc.Create(ctx, clinicID, CreateInput{PatientID: uuid.New()})
	notifier.calls = nil

	note := "running late"
	if _, err := svc.Update(ctx, clinicID, a.ID, UpdateInput{Note: &note}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("note-only update must not notify the queue, got %d calls", len(notifier.calls))
	}
}
