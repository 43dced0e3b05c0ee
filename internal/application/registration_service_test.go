package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/community-meetings/internal/persistence"
	"github.com/example/community-meetings/internal/testfixtures"
)

type registrationRepoStub struct {
	registerStatus persistence.RegistrationStatus
	registerErr    error
	registeredID   string

	unregisterErr error

	confirmedCount int
	hostCount      int
	confirmed      []persistence.Registration
	userMeetings   []persistence.Meeting
}

func (s *registrationRepoStub) Register(ctx context.Context, id string, meetingID, userID int64, now time.Time) (persistence.RegistrationStatus, error) {
	if s.registerErr != nil {
		return "", s.registerErr
	}
	s.registeredID = id
	return s.registerStatus, nil
}

func (s *registrationRepoStub) Unregister(ctx context.Context, meetingID, userID int64) error {
	return s.unregisterErr
}

func (s *registrationRepoStub) ConfirmedCount(ctx context.Context, meetingID int64) (int, error) {
	return s.confirmedCount, nil
}

func (s *registrationRepoStub) HostCount(ctx context.Context, meetingID int64) (int, error) {
	return s.hostCount, nil
}

func (s *registrationRepoStub) ListConfirmedForMeeting(ctx context.Context, meetingID int64) ([]persistence.Registration, error) {
	return s.confirmed, nil
}

func (s *registrationRepoStub) ListMeetingsForUser(ctx context.Context, userID int64, from time.Time) ([]persistence.Meeting, error) {
	return s.userMeetings, nil
}

func newRegistrationService(repo *registrationRepoStub) *RegistrationService {
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("reg")
	return NewRegistrationService(repo, ids.NextFunc(), clock.NowFunc(), nil)
}

func TestRegistrationService_Register(t *testing.T) {
	cases := []struct {
		name        string
		repo        *registrationRepoStub
		wantStatus  RegistrationResult
		wantMessage string
	}{
		{
			name:        "confirmed",
			repo:        &registrationRepoStub{registerStatus: persistence.StatusConfirmed},
			wantStatus:  ResultConfirmed,
			wantMessage: "Registered successfully.",
		},
		{
			name:        "waitlisted at capacity",
			repo:        &registrationRepoStub{registerStatus: persistence.StatusWaitlisted},
			wantStatus:  ResultWaitlisted,
			wantMessage: "Meeting is full. You are added to the waitlist.",
		},
		{
			name:        "duplicate live registration",
			repo:        &registrationRepoStub{registerErr: persistence.ErrDuplicate},
			wantStatus:  ResultAlreadyRegistered,
			wantMessage: "You are already registered.",
		},
		{
			name:        "missing or canceled meeting",
			repo:        &registrationRepoStub{registerErr: persistence.ErrNotFound},
			wantStatus:  ResultNotFound,
			wantMessage: "Meeting not found or canceled.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newRegistrationService(tc.repo)

			outcome, err := svc.Register(context.Background(), 7, 100)
			if err != nil {
				t.Fatalf("Register failed: %v", err)
			}
			if outcome.Status != tc.wantStatus {
				t.Errorf("expected status %s, got %s", tc.wantStatus, outcome.Status)
			}
			if outcome.Message != tc.wantMessage {
				t.Errorf("expected message %q, got %q", tc.wantMessage, outcome.Message)
			}
		})
	}
}

func TestRegistrationService_Register_RepositoryFailure(t *testing.T) {
	repoErr := errors.New("disk full")
	svc := newRegistrationService(&registrationRepoStub{registerErr: repoErr})

	_, err := svc.Register(context.Background(), 7, 100)
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error to surface, got %v", err)
	}
}

func TestRegistrationService_Register_GeneratesRowID(t *testing.T) {
	repo := &registrationRepoStub{registerStatus: persistence.StatusConfirmed}
	svc := newRegistrationService(repo)

	if _, err := svc.Register(context.Background(), 7, 100); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if repo.registeredID != "reg-1" {
		t.Fatalf("expected generated id 'reg-1', got %q", repo.registeredID)
	}
}

func TestRegistrationService_Unregister(t *testing.T) {
	t.Run("unregistered", func(t *testing.T) {
		svc := newRegistrationService(&registrationRepoStub{})

		outcome, err := svc.Unregister(context.Background(), 7, 100)
		if err != nil {
			t.Fatalf("Unregister failed: %v", err)
		}
		if outcome.Status != ResultUnregistered {
			t.Errorf("expected status %s, got %s", ResultUnregistered, outcome.Status)
		}
		if outcome.Message != "You have been unregistered." {
			t.Errorf("unexpected message %q", outcome.Message)
		}
	})

	t.Run("not registered", func(t *testing.T) {
		svc := newRegistrationService(&registrationRepoStub{unregisterErr: persistence.ErrNotFound})

		outcome, err := svc.Unregister(context.Background(), 7, 100)
		if err != nil {
			t.Fatalf("Unregister failed: %v", err)
		}
		if outcome.Status != ResultNotRegistered {
			t.Errorf("expected status %s, got %s", ResultNotRegistered, outcome.Status)
		}
		if outcome.Message != "You are not registered." {
			t.Errorf("unexpected message %q", outcome.Message)
		}
	})

	t.Run("repository failure", func(t *testing.T) {
		repoErr := errors.New("disk full")
		svc := newRegistrationService(&registrationRepoStub{unregisterErr: repoErr})

		if _, err := svc.Unregister(context.Background(), 7, 100); !errors.Is(err, repoErr) {
			t.Fatalf("expected repository error to surface, got %v", err)
		}
	})
}
