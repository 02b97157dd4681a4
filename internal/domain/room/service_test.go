package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicops/internal/platform/apperr"
)

type mockRepo struct {
	rooms map[uuid.UUID]*Room
}

func newMockRepo() *mockRepo {
	return &mockRepo{rooms: make(map[uuid.UUID]*Room)}
}

func (m *mockRepo) Create(_ context.Context, r *Room) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.rooms[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, clinicID, id uuid.UUID) (*Room, error) {
	r, ok := m.rooms[id]
	if !ok || r.ClinicID != clinicID {
		return nil, apperr.E(apperr.ErrNotFound, "room %s not found", id)
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, r *Room) error {
	existing, ok := m.rooms[r.ID]
	if !ok || existing.ClinicID != r.ClinicID {
		return apperr.E(apperr.ErrNotFound, "room %s not found", r.ID)
	}
	cp := *r
	m.rooms[r.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, clinicID uuid.UUID) ([]*Room, error) {
	var result []*Room
	for _, r := range m.rooms {
		if r.ClinicID == clinicID {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}

type mockNotifier struct {
	calls []uuid.UUID
}

func (m *mockNotifier) QueueChanged(_ context.Context, clinicID uuid.UUID) {
	m.calls = append(m.calls, clinicID)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), "", nil)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateStartsOpen(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	rm, err := svc.Create(context.Background(), uuid.New(), "Consult 1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rm.Status != StatusOpen {
		t.Errorf("expected OPEN, got %s", rm.Status)
	}
}

func TestSetStatusNotifiesQueue(t *testing.T) {
	notifier := &mockNotifier{}
	svc := NewService(newMockRepo(), notifier)
	clinicID := uuid.New()
	ctx := context.Background()

	rm, _ := svc.Create(ctx, clinicID, "Consult 1", nil)
	notifier.calls = nil

	rm, err := svc.SetStatus(ctx, clinicID, rm.ID, StatusPaused)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rm.Status != StatusPaused {
		t.Errorf("expected PAUSED, got %s", rm.Status)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != clinicID {
		t.Errorf("expected one queue notification for %s, got %v", clinicID, notifier.calls)
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	clinicID := uuid.New()
	ctx := context.Background()

	rm, _ := svc.Create(ctx, clinicID, "Consult 1", nil)

	_, err := svc.SetStatus(ctx, clinicID, rm.ID, Status("DEMOLISHED"))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetCrossTenantIsNotFound(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	ctx := context.Background()

	rm, _ := svc.Create(ctx, uuid.New(), "Consult 1", nil)

	_, err := svc.Get(ctx, uuid.New(), rm.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign clinic, got %v", err)
	}
}

func TestUpdateRenameNotifiesQueue(t *testing.T) {
	notifier := &mockNotifier{}
	svc := NewService(newMockRepo(), notifier)
	clinicID := uuid.New()
	ctx := context.Background()

	rm, _ := svc.Create(ctx, clinicID, "Consult 1", nil)
	notifier.calls = nil

	name := "Consult 1B"
	if _, err := svc.Update(ctx, clinicID, rm.ID, UpdateInput{Name: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != clinicID {
		t.Errorf("expected a queue notification for a rename, got %v", notifier.calls)
	}

	// A description change is not part of the snapshot and stays quiet.
	notifier.calls = nil
	desc := "ground floor"
	if _, err := svc.Update(ctx, clinicID, rm.ID, UpdateInput{Description: &desc}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Errorf("expected no notification for a description change, got %v", notifier.calls)
	}
}

func TestUpdateKeepsStatus(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	clinicID := uuid.New()
	ctx := context.Background()

	rm, _ := svc.Create(ctx, clinicID, "Consult 1", nil)
	rm, _ = svc.SetStatus(ctx, clinicID, rm.ID, StatusClosed)

	name := "Consult 1B"
	rm, err := svc.Update(ctx, clinicID, rm.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rm.Name != "Consult 1B" {
		t.Errorf("expected renamed room, got %s", rm.Name)
	}
	if rm.Status != StatusClosed {
		t.Errorf("expected status preserved, got %s", rm.Status)
	}
}
