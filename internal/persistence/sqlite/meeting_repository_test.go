package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/community-meetings/internal/persistence"
)

func TestMeetingRepository_CreateMeeting(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	meeting := createTestMeeting(t, pool, 1, 5, start)

	if meeting.ID == 0 {
		t.Fatal("expected assigned meeting id")
	}

	repo := NewMeetingRepository(pool)
	retrieved, err := repo.GetMeeting(context.Background(), meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if retrieved.Topic != "Planning sync" {
		t.Errorf("expected topic 'Planning sync', got %q", retrieved.Topic)
	}
	if !retrieved.StartAt.Equal(start) {
		t.Errorf("expected start %v, got %v", start, retrieved.StartAt)
	}
	if retrieved.StartAt.Location() != time.UTC {
		t.Errorf("expected UTC start, got %v", retrieved.StartAt.Location())
	}

	regs := NewRegistrationRepository(pool)
	confirmed, err := regs.ConfirmedCount(context.Background(), meeting.ID)
	if err != nil {
		t.Fatalf("ConfirmedCount failed: %v", err)
	}
	if confirmed != 1 {
		t.Fatalf("expected host to be confirmed at creation, got %d confirmed", confirmed)
	}

	hosts, err := regs.HostCount(context.Background(), meeting.ID)
	if err != nil {
		t.Fatalf("HostCount failed: %v", err)
	}
	if hosts != 1 {
		t.Fatalf("expected 1 host registration, got %d", hosts)
	}
}

func TestMeetingRepository_CreateMeeting_InvalidCapacity(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	now := time.Now().UTC().Truncate(time.Second)
	repo := NewMeetingRepository(pool)
	_, err := repo.CreateMeeting(context.Background(), persistence.Meeting{
		Topic:       "Broken",
		Description: "Zero capacity",
		StartAt:     now.Add(time.Hour),
		Capacity:    0,
		CreatedBy:   1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, persistence.Registration{
		ID:        "host-broken",
		UserID:    1,
		Status:    persistence.StatusConfirmed,
		Host:      true,
		CreatedAt: now,
	})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestMeetingRepository_GetMeeting_NotFound(t *testing.T) {
	pool := newTestPool(t)

	repo := NewMeetingRepository(pool)
	_, err := repo.GetMeeting(context.Background(), 999)
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMeetingRepository_TimezoneNormalization(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	start := time.Date(2026, time.September, 10, 19, 30, 0, 0, berlin)
	meeting := createTestMeeting(t, pool, 1, 5, start)

	repo := NewMeetingRepository(pool)
	retrieved, err := repo.GetMeeting(context.Background(), meeting.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}

	if !retrieved.StartAt.Equal(start) {
		t.Fatalf("instant changed across round trip: stored %v, got %v", start, retrieved.StartAt)
	}
	if retrieved.StartAt.Location() != time.UTC {
		t.Fatalf("expected UTC location after read, got %v", retrieved.StartAt.Location())
	}
}

func TestMeetingRepository_ListActiveMeetingsFrom(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	past := createTestMeeting(t, pool, 1, 5, now.Add(-24*time.Hour))
	soon := createTestMeeting(t, pool, 1, 5, now.Add(24*time.Hour))
	later := createTestMeeting(t, pool, 1, 5, now.Add(72*time.Hour))
	canceled := createTestMeeting(t, pool, 1, 5, now.Add(48*time.Hour))

	repo := NewMeetingRepository(pool)
	if err := repo.CancelMeeting(ctx, canceled.ID, now); err != nil {
		t.Fatalf("CancelMeeting failed: %v", err)
	}

	meetings, err := repo.ListActiveMeetingsFrom(ctx, now)
	if err != nil {
		t.Fatalf("ListActiveMeetingsFrom failed: %v", err)
	}

	if len(meetings) != 2 {
		t.Fatalf("expected 2 meetings, got %d", len(meetings))
	}
	if meetings[0].ID != soon.ID || meetings[1].ID != later.ID {
		t.Fatalf("expected ascending start order [%d %d], got [%d %d]", soon.ID, later.ID, meetings[0].ID, meetings[1].ID)
	}
	for _, m := range meetings {
		if m.ID == past.ID {
			t.Fatal("past meeting included in upcoming listing")
		}
	}
}

func TestMeetingRepository_UpdateMeetingStart(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	meeting := createTestMeeting(t, pool, 1, 5, now.Add(24*time.Hour))

	repo := NewMeetingRepository(pool)
	newStart := now.Add(10 * 24 * time.Hour)
	updated, err := repo.UpdateMeetingStart(ctx, meeting.ID, newStart, now)
	if err != nil {
		t.Fatalf("UpdateMeetingStart failed: %v", err)
	}
	if !updated.StartAt.Equal(newStart) {
		t.Fatalf("expected start %v, got %v", newStart, updated.StartAt)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, updated.UpdatedAt)
	}
}

func TestMeetingRepository_UpdateMeetingStart_Canceled(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	meeting := createTestMeeting(t, pool, 1, 5, now.Add(24*time.Hour))

	repo := NewMeetingRepository(pool)
	if err := repo.CancelMeeting(ctx, meeting.ID, now); err != nil {
		t.Fatalf("CancelMeeting failed: %v", err)
	}

	_, err := repo.UpdateMeetingStart(ctx, meeting.ID, now.Add(48*time.Hour), now)
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for canceled meeting, got %v", err)
	}
}

func TestMeetingRepository_CancelMeeting_Twice(t *testing.T) {
	pool := newTestPool(t)
	createTestUser(t, pool, 1, "Alice")

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	meeting := createTestMeeting(t, pool, 1, 5, now.Add(24*time.Hour))

	repo := NewMeetingRepository(pool)
	if err := repo.CancelMeeting(ctx, meeting.ID, now); err != nil {
		t.Fatalf("first CancelMeeting failed: %v", err)
	}
	if err := repo.CancelMeeting(ctx, meeting.ID, now); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second cancel, got %v", err)
	}
}
