package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/community-meetings/internal/persistence"
)

// ReminderPlanner derives reminder jobs from meeting state. Implemented by
// the planner package; a nil planner disables reminder scheduling.
type ReminderPlanner interface {
	PlanMeetingReminders(meeting persistence.Meeting)
	CancelMeetingReminders(meetingID int64)
}

// MeetingService orchestrates validation, persistence and reminder planning
// for meeting operations.
type MeetingService struct {
	meetings      persistence.MeetingRepository
	registrations persistence.RegistrationRepository
	users         UserStore
	planner       ReminderPlanner
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewMeetingService wires dependencies for meeting operations.
func NewMeetingService(
	meetings persistence.MeetingRepository,
	registrations persistence.RegistrationRepository,
	users UserStore,
	planner ReminderPlanner,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *MeetingService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingService{
		meetings:      meetings,
		registrations: registrations,
		users:         users,
		planner:       planner,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// CreateMeeting validates the request, persists the meeting together with the
// host's confirmed registration in one atomic unit, and plans reminders.
// A past start instant is accepted; planning skips offsets already behind.
func (s *MeetingService) CreateMeeting(ctx context.Context, hostID int64, input MeetingInput) (Meeting, error) {
	logger := serviceLogger(ctx, s.logger, "meetings", "create_meeting", "host_id", hostID)

	vErr := &ValidationError{}
	if hostID == 0 {
		vErr.add("host_id", "host is required")
	}
	if strings.TrimSpace(input.Topic) == "" {
		vErr.add("topic", "topic is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		vErr.add("description", "description is required")
	}
	if input.StartAt.IsZero() {
		vErr.add("start_at", "start is required")
	}
	if input.Capacity < 1 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		return Meeting{}, vErr
	}

	now := s.now().UTC()
	meeting := persistence.Meeting{
		Topic:       strings.TrimSpace(input.Topic),
		Description: strings.TrimSpace(input.Description),
		StartAt:     input.StartAt.UTC(),
		Capacity:    input.Capacity,
		Location:    input.Location,
		CreatedBy:   hostID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	host := persistence.Registration{
		ID:        s.idGenerator(),
		UserID:    hostID,
		Status:    persistence.StatusConfirmed,
		Host:      true,
		CreatedAt: now,
	}

	persisted, err := s.meetings.CreateMeeting(ctx, meeting, host)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create meeting", "error", err, "error_kind", ErrorKind(err))
		return Meeting{}, mapRepoError(err)
	}

	if s.planner != nil {
		s.planner.PlanMeetingReminders(persisted)
	}

	logger.InfoContext(ctx, "meeting created", "meeting_id", persisted.ID, "start_at", persisted.StartAt)
	return toMeeting(persisted), nil
}

// GetMeetingSummary assembles the listing/detail view for a meeting. The
// confirmed and host counts are live queries, never cached.
func (s *MeetingService) GetMeetingSummary(ctx context.Context, meetingID int64) (MeetingSummary, error) {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return MeetingSummary{}, mapRepoError(err)
	}
	if !meeting.Active() {
		return MeetingSummary{}, ErrNotFound
	}
	return s.summarize(ctx, meeting)
}

// ListUpcoming returns summaries for active meetings starting at or after now,
// ordered by start ascending.
func (s *MeetingService) ListUpcoming(ctx context.Context) ([]MeetingSummary, error) {
	meetings, err := s.meetings.ListActiveMeetingsFrom(ctx, s.now().UTC())
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.summarizeAll(ctx, meetings)
}

// ListUserMeetings returns summaries for upcoming meetings the user holds a
// live registration for.
func (s *MeetingService) ListUserMeetings(ctx context.Context, userID int64) ([]MeetingSummary, error) {
	meetings, err := s.registrations.ListMeetingsForUser(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.summarizeAll(ctx, meetings)
}

// RescheduleMeeting reestablishes the start instant and replans reminders.
// Replanning reuses the stable job ids, so edits replace rather than
// duplicate jobs.
func (s *MeetingService) RescheduleMeeting(ctx context.Context, meetingID int64, start time.Time) (Meeting, error) {
	logger := serviceLogger(ctx, s.logger, "meetings", "reschedule_meeting", "meeting_id", meetingID)

	if start.IsZero() {
		vErr := &ValidationError{}
		vErr.add("start_at", "start is required")
		return Meeting{}, vErr
	}

	updated, err := s.meetings.UpdateMeetingStart(ctx, meetingID, start.UTC(), s.now().UTC())
	if err != nil {
		logger.ErrorContext(ctx, "failed to reschedule meeting", "error", err, "error_kind", ErrorKind(err))
		return Meeting{}, mapRepoError(err)
	}

	if s.planner != nil {
		s.planner.PlanMeetingReminders(updated)
	}

	logger.InfoContext(ctx, "meeting rescheduled", "start_at", updated.StartAt)
	return toMeeting(updated), nil
}

// CancelMeeting records the cancellation instant and withdraws the meeting's
// reminder jobs.
func (s *MeetingService) CancelMeeting(ctx context.Context, meetingID int64) error {
	logger := serviceLogger(ctx, s.logger, "meetings", "cancel_meeting", "meeting_id", meetingID)

	if err := s.meetings.CancelMeeting(ctx, meetingID, s.now().UTC()); err != nil {
		logger.ErrorContext(ctx, "failed to cancel meeting", "error", err, "error_kind", ErrorKind(err))
		return mapRepoError(err)
	}

	if s.planner != nil {
		s.planner.CancelMeetingReminders(meetingID)
	}

	logger.InfoContext(ctx, "meeting canceled")
	return nil
}

func (s *MeetingService) summarizeAll(ctx context.Context, meetings []persistence.Meeting) ([]MeetingSummary, error) {
	summaries := make([]MeetingSummary, 0, len(meetings))
	for _, meeting := range meetings {
		summary, err := s.summarize(ctx, meeting)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *MeetingService) summarize(ctx context.Context, meeting persistence.Meeting) (MeetingSummary, error) {
	confirmed, err := s.registrations.ConfirmedCount(ctx, meeting.ID)
	if err != nil {
		return MeetingSummary{}, mapRepoError(err)
	}
	hosts, err := s.registrations.HostCount(ctx, meeting.ID)
	if err != nil {
		return MeetingSummary{}, mapRepoError(err)
	}

	hostName := "Unknown"
	if s.users != nil {
		if host, err := s.users.GetUser(ctx, meeting.CreatedBy); err == nil {
			switch {
			case host.Name != "":
				hostName = host.Name
			case host.Username != nil:
				hostName = "@" + *host.Username
			}
		}
	}

	return MeetingSummary{
		ID:             meeting.ID,
		Topic:          meeting.Topic,
		Description:    meeting.Description,
		StartAt:        meeting.StartAt,
		Capacity:       meeting.Capacity,
		ConfirmedCount: confirmed,
		HostCount:      hosts,
		Location:       meeting.Location,
		HostName:       hostName,
	}, nil
}

func toMeeting(meeting persistence.Meeting) Meeting {
	return Meeting{
		ID:          meeting.ID,
		Topic:       meeting.Topic,
		Description: meeting.Description,
		StartAt:     meeting.StartAt,
		Capacity:    meeting.Capacity,
		Location:    meeting.Location,
		CreatedBy:   meeting.CreatedBy,
		CreatedAt:   meeting.CreatedAt,
		UpdatedAt:   meeting.UpdatedAt,
		CanceledAt:  meeting.CanceledAt,
	}
}
