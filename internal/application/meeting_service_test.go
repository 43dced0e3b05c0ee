package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/community-meetings/internal/persistence"
	"github.com/example/community-meetings/internal/testfixtures"
)

type meetingRepoStub struct {
	createErr error
	created   persistence.Meeting
	host      persistence.Registration

	meeting persistence.Meeting
	getErr  error

	list    []persistence.Meeting
	listErr error

	updated   persistence.Meeting
	updateErr error

	cancelErr  error
	canceledID int64
}

func (s *meetingRepoStub) CreateMeeting(ctx context.Context, meeting persistence.Meeting, host persistence.Registration) (persistence.Meeting, error) {
	if s.createErr != nil {
		return persistence.Meeting{}, s.createErr
	}
	meeting.ID = 7
	s.created = meeting
	s.host = host
	return meeting, nil
}

func (s *meetingRepoStub) GetMeeting(ctx context.Context, id int64) (persistence.Meeting, error) {
	if s.getErr != nil {
		return persistence.Meeting{}, s.getErr
	}
	return s.meeting, nil
}

func (s *meetingRepoStub) ListActiveMeetingsFrom(ctx context.Context, from time.Time) ([]persistence.Meeting, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

func (s *meetingRepoStub) UpdateMeetingStart(ctx context.Context, id int64, start, now time.Time) (persistence.Meeting, error) {
	if s.updateErr != nil {
		return persistence.Meeting{}, s.updateErr
	}
	s.updated = s.meeting
	s.updated.ID = id
	s.updated.StartAt = start
	s.updated.UpdatedAt = now
	return s.updated, nil
}

func (s *meetingRepoStub) CancelMeeting(ctx context.Context, id int64, at time.Time) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.canceledID = id
	return nil
}

type plannerStub struct {
	planned  []persistence.Meeting
	canceled []int64
}

func (s *plannerStub) PlanMeetingReminders(meeting persistence.Meeting) {
	s.planned = append(s.planned, meeting)
}

func (s *plannerStub) CancelMeetingReminders(meetingID int64) {
	s.canceled = append(s.canceled, meetingID)
}

type userStoreStub struct {
	users map[int64]persistence.User
}

func (s *userStoreStub) UpsertUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if s.users == nil {
		s.users = make(map[int64]persistence.User)
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *userStoreStub) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func newMeetingService(meetings *meetingRepoStub, registrations *registrationRepoStub, users *userStoreStub, planner *plannerStub) (*MeetingService, *testfixtures.Clock) {
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("reg")
	var reminderPlanner ReminderPlanner
	if planner != nil {
		reminderPlanner = planner
	}
	var store UserStore
	if users != nil {
		store = users
	}
	return NewMeetingService(meetings, registrations, store, reminderPlanner, ids.NextFunc(), clock.NowFunc(), nil), clock
}

func TestMeetingService_CreateMeeting(t *testing.T) {
	t.Run("validates required attributes", func(t *testing.T) {
		svc, _ := newMeetingService(&meetingRepoStub{}, &registrationRepoStub{}, nil, nil)

		_, err := svc.CreateMeeting(context.Background(), 0, MeetingInput{
			Topic:       "   ",
			Description: "",
			Capacity:    0,
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"host_id", "topic", "description", "start_at", "capacity"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("persists meeting with confirmed host registration", func(t *testing.T) {
		meetings := &meetingRepoStub{}
		planner := &plannerStub{}
		svc, clock := newMeetingService(meetings, &registrationRepoStub{}, nil, planner)

		start := clock.Now().Add(96 * time.Hour)
		created, err := svc.CreateMeeting(context.Background(), 42, MeetingInput{
			Topic:       "  Go meetup  ",
			Description: "Monthly community session",
			StartAt:     start,
			Capacity:    10,
		})
		if err != nil {
			t.Fatalf("CreateMeeting failed: %v", err)
		}

		if created.ID != 7 {
			t.Errorf("expected assigned id 7, got %d", created.ID)
		}
		if meetings.created.Topic != "Go meetup" {
			t.Errorf("expected trimmed topic, got %q", meetings.created.Topic)
		}
		if meetings.host.UserID != 42 || !meetings.host.Host {
			t.Errorf("expected host registration for user 42, got %+v", meetings.host)
		}
		if meetings.host.Status != persistence.StatusConfirmed {
			t.Errorf("expected host confirmed, got %s", meetings.host.Status)
		}
		if meetings.host.ID != "reg-1" {
			t.Errorf("expected generated registration id, got %q", meetings.host.ID)
		}

		if len(planner.planned) != 1 || planner.planned[0].ID != 7 {
			t.Fatalf("expected reminders planned for meeting 7, got %+v", planner.planned)
		}
	})

	t.Run("accepts a past start", func(t *testing.T) {
		svc, clock := newMeetingService(&meetingRepoStub{}, &registrationRepoStub{}, nil, &plannerStub{})

		_, err := svc.CreateMeeting(context.Background(), 42, MeetingInput{
			Topic:       "Retro",
			Description: "Already happened",
			StartAt:     clock.Now().Add(-time.Hour),
			Capacity:    5,
		})
		if err != nil {
			t.Fatalf("expected past start to be accepted, got %v", err)
		}
	})
}

func TestMeetingService_GetMeetingSummary(t *testing.T) {
	t.Run("assembles counts and host name", func(t *testing.T) {
		clock := testfixtures.NewClock(time.Time{})
		meeting := testfixtures.NewMeetingFixture(
			testfixtures.WithStartAt(clock.Now().Add(48*time.Hour)),
			testfixtures.WithCapacity(10),
			testfixtures.WithCreatedBy(42),
		)
		meeting.ID = 7

		meetings := &meetingRepoStub{meeting: meeting}
		registrations := &registrationRepoStub{confirmedCount: 4, hostCount: 1}
		users := &userStoreStub{users: map[int64]persistence.User{42: {ID: 42, Name: "Alice"}}}

		svc, _ := newMeetingService(meetings, registrations, users, nil)
		summary, err := svc.GetMeetingSummary(context.Background(), 7)
		if err != nil {
			t.Fatalf("GetMeetingSummary failed: %v", err)
		}

		if summary.ConfirmedCount != 4 || summary.HostCount != 1 {
			t.Errorf("unexpected counts: %+v", summary)
		}
		if summary.AvailableSlots() != 6 {
			t.Errorf("expected 6 available slots, got %d", summary.AvailableSlots())
		}
		if summary.HostName != "Alice" {
			t.Errorf("expected host name 'Alice', got %q", summary.HostName)
		}
	})

	t.Run("unknown host falls back", func(t *testing.T) {
		clock := testfixtures.NewClock(time.Time{})
		meeting := testfixtures.NewMeetingFixture(
			testfixtures.WithStartAt(clock.Now().Add(48*time.Hour)),
			testfixtures.WithCreatedBy(42),
		)
		meeting.ID = 7

		svc, _ := newMeetingService(&meetingRepoStub{meeting: meeting}, &registrationRepoStub{}, &userStoreStub{}, nil)
		summary, err := svc.GetMeetingSummary(context.Background(), 7)
		if err != nil {
			t.Fatalf("GetMeetingSummary failed: %v", err)
		}
		if summary.HostName != "Unknown" {
			t.Errorf("expected fallback host name, got %q", summary.HostName)
		}
	})

	t.Run("canceled meeting reads as not found", func(t *testing.T) {
		clock := testfixtures.NewClock(time.Time{})
		meeting := testfixtures.NewMeetingFixture(testfixtures.WithStartAt(clock.Now().Add(48 * time.Hour)))
		meeting.ID = 7
		canceledAt := clock.Now()
		meeting.CanceledAt = &canceledAt

		svc, _ := newMeetingService(&meetingRepoStub{meeting: meeting}, &registrationRepoStub{}, nil, nil)
		if _, err := svc.GetMeetingSummary(context.Background(), 7); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("missing meeting", func(t *testing.T) {
		svc, _ := newMeetingService(&meetingRepoStub{getErr: persistence.ErrNotFound}, &registrationRepoStub{}, nil, nil)
		if _, err := svc.GetMeetingSummary(context.Background(), 7); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMeetingService_RescheduleMeeting(t *testing.T) {
	t.Run("updates start and replans", func(t *testing.T) {
		clock := testfixtures.NewClock(time.Time{})
		meeting := testfixtures.NewMeetingFixture(testfixtures.WithStartAt(clock.Now().Add(48 * time.Hour)))
		meetings := &meetingRepoStub{meeting: meeting}
		planner := &plannerStub{}

		svc, _ := newMeetingService(meetings, &registrationRepoStub{}, nil, planner)
		newStart := clock.Now().Add(10 * 24 * time.Hour)
		updated, err := svc.RescheduleMeeting(context.Background(), 7, newStart)
		if err != nil {
			t.Fatalf("RescheduleMeeting failed: %v", err)
		}
		if !updated.StartAt.Equal(newStart) {
			t.Errorf("expected start %v, got %v", newStart, updated.StartAt)
		}
		if len(planner.planned) != 1 || !planner.planned[0].StartAt.Equal(newStart) {
			t.Fatalf("expected reminders replanned for the new start, got %+v", planner.planned)
		}
	})

	t.Run("requires a start instant", func(t *testing.T) {
		svc, _ := newMeetingService(&meetingRepoStub{}, &registrationRepoStub{}, nil, nil)

		_, err := svc.RescheduleMeeting(context.Background(), 7, time.Time{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing meeting", func(t *testing.T) {
		svc, clock := newMeetingService(&meetingRepoStub{updateErr: persistence.ErrNotFound}, &registrationRepoStub{}, nil, nil)

		_, err := svc.RescheduleMeeting(context.Background(), 7, clock.Now().Add(time.Hour))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestMeetingService_CancelMeeting(t *testing.T) {
	t.Run("cancels and withdraws reminders", func(t *testing.T) {
		meetings := &meetingRepoStub{}
		planner := &plannerStub{}
		svc, _ := newMeetingService(meetings, &registrationRepoStub{}, nil, planner)

		if err := svc.CancelMeeting(context.Background(), 7); err != nil {
			t.Fatalf("CancelMeeting failed: %v", err)
		}
		if meetings.canceledID != 7 {
			t.Errorf("expected meeting 7 canceled, got %d", meetings.canceledID)
		}
		if len(planner.canceled) != 1 || planner.canceled[0] != 7 {
			t.Fatalf("expected reminders withdrawn for meeting 7, got %v", planner.canceled)
		}
	})

	t.Run("missing meeting", func(t *testing.T) {
		planner := &plannerStub{}
		svc, _ := newMeetingService(&meetingRepoStub{cancelErr: persistence.ErrNotFound}, &registrationRepoStub{}, nil, planner)

		if err := svc.CancelMeeting(context.Background(), 7); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if len(planner.canceled) != 0 {
			t.Fatal("reminders withdrawn for a meeting that was not canceled")
		}
	})
}

func TestMeetingService_ListUpcoming(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	first := testfixtures.NewMeetingFixture(testfixtures.WithStartAt(clock.Now().Add(24 * time.Hour)))
	first.ID = 1
	second := testfixtures.NewMeetingFixture(testfixtures.WithStartAt(clock.Now().Add(48 * time.Hour)))
	second.ID = 2

	meetings := &meetingRepoStub{list: []persistence.Meeting{first, second}}
	svc, _ := newMeetingService(meetings, &registrationRepoStub{}, nil, nil)

	summaries, err := svc.ListUpcoming(context.Background())
	if err != nil {
		t.Fatalf("ListUpcoming failed: %v", err)
	}
	if len(summaries) != 2 || summaries[0].ID != 1 || summaries[1].ID != 2 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}
