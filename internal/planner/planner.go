package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/community-meetings/internal/delivery"
	"github.com/example/community-meetings/internal/persistence"
	"github.com/example/community-meetings/internal/scheduler"
)

// ReminderOffset is a fixed duration before a meeting's start at which a
// reminder fires. The label feeds the stable job id.
type ReminderOffset struct {
	Label  string
	Before time.Duration
}

// DefaultReminderOffsets mirrors the 3-days and 1-day reminders.
var DefaultReminderOffsets = []ReminderOffset{
	{Label: "3d", Before: 72 * time.Hour},
	{Label: "1d", Before: 24 * time.Hour},
}

// digestJobID is shared by all digest submissions so edits replace the job.
const digestJobID = "announcements:digest"

// digestMaxEntries bounds the digest message size.
const digestMaxEntries = 10

const noUpcomingMeetings = "No upcoming meetings."

// Planner derives reminder and digest jobs from meeting state and submits
// them to the timer under stable ids, making replanning idempotent.
type Planner struct {
	timer         *scheduler.Timer
	meetings      persistence.MeetingRepository
	registrations persistence.RegistrationRepository
	sender        delivery.Sender
	offsets       []ReminderOffset
	location      *time.Location
	now           func() time.Time
	logger        *slog.Logger
}

// New wires a planner. A nil offsets slice selects DefaultReminderOffsets and
// a nil location falls back to UTC (presentation only; stored instants stay
// UTC regardless).
func New(
	timer *scheduler.Timer,
	meetings persistence.MeetingRepository,
	registrations persistence.RegistrationRepository,
	sender delivery.Sender,
	offsets []ReminderOffset,
	location *time.Location,
	now func() time.Time,
	logger *slog.Logger,
) *Planner {
	if offsets == nil {
		offsets = DefaultReminderOffsets
	}
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		timer:         timer,
		meetings:      meetings,
		registrations: registrations,
		sender:        sender,
		offsets:       offsets,
		location:      location,
		now:           now,
		logger:        logger,
	}
}

// ReminderJobID is the stable id for a meeting's reminder at a given offset.
func ReminderJobID(meetingID int64, offsetLabel string) string {
	return fmt.Sprintf("meeting:%d:reminder:%s", meetingID, offsetLabel)
}

// PlanMeetingReminders submits one job per configured offset whose fire
// instant is still in the future. Past offsets are skipped silently; a
// previously submitted job for a now-past offset is withdrawn so replanning
// always converges on the correct set.
func (p *Planner) PlanMeetingReminders(meeting persistence.Meeting) {
	if !meeting.Active() {
		p.CancelMeetingReminders(meeting.ID)
		return
	}

	now := p.now()
	for _, offset := range p.offsets {
		id := ReminderJobID(meeting.ID, offset.Label)
		fireAt := meeting.StartAt.Add(-offset.Before)
		if !fireAt.After(now) {
			p.timer.Cancel(id)
			continue
		}
		meetingID := meeting.ID
		p.timer.Submit(id, fireAt, func(ctx context.Context) {
			p.fireReminder(ctx, meetingID)
		})
	}

	p.logger.Debug("reminders planned", "meeting_id", meeting.ID, "start_at", meeting.StartAt)
}

// CancelMeetingReminders withdraws every reminder job for the meeting.
func (p *Planner) CancelMeetingReminders(meetingID int64) {
	for _, offset := range p.offsets {
		p.timer.Cancel(ReminderJobID(meetingID, offset.Label))
	}
}

// ReplanAll recomputes reminder jobs for every active future meeting from
// persisted state. Called at startup, because in-memory jobs do not survive a
// restart.
func (p *Planner) ReplanAll(ctx context.Context) error {
	meetings, err := p.meetings.ListActiveMeetingsFrom(ctx, p.now().UTC())
	if err != nil {
		return fmt.Errorf("planner: failed to list meetings for replanning: %w", err)
	}
	for _, meeting := range meetings {
		p.PlanMeetingReminders(meeting)
	}
	p.logger.Info("reminders replanned from persisted meetings", "meetings", len(meetings))
	return nil
}

func (p *Planner) fireReminder(ctx context.Context, meetingID int64) {
	logger := p.logger.With("job", "reminder", "meeting_id", meetingID)

	meeting, err := p.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		logger.WarnContext(ctx, "skipping reminder, meeting not loadable", "error", err)
		return
	}
	// Canceled or already started meetings get no reminder even if the job
	// slipped through a cancellation race.
	if !meeting.Active() || !meeting.StartAt.After(p.now()) {
		logger.InfoContext(ctx, "skipping reminder, meeting canceled or started")
		return
	}

	registrations, err := p.registrations.ListConfirmedForMeeting(ctx, meetingID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list confirmed registrations", "error", err)
		return
	}

	text := p.formatReminder(meeting)
	for _, registration := range registrations {
		if err := p.sender.Send(ctx, registration.UserID, text); err != nil {
			logger.WarnContext(ctx, "failed to deliver reminder", "user_id", registration.UserID, "error", err)
		}
	}
	logger.InfoContext(ctx, "reminder delivered", "recipients", len(registrations))
}

// ScheduleAnnouncementDigest sets up the recurring digest job firing on the
// given days of the month at the local time of day. Never scheduled when no
// destination is configured.
func (p *Planner) ScheduleAnnouncementDigest(days []int, hour, minute int, destination int64) {
	if destination == 0 {
		p.logger.Info("announcement digest disabled, no destination configured")
		return
	}
	if len(days) == 0 {
		p.logger.Warn("announcement digest disabled, no days configured")
		return
	}

	sorted := make([]int, 0, len(days))
	for _, day := range days {
		if day >= 1 && day <= 31 {
			sorted = append(sorted, day)
		}
	}
	if len(sorted) == 0 {
		p.logger.Warn("announcement digest disabled, no valid days configured")
		return
	}
	sort.Ints(sorted)

	p.timer.SubmitRecurring(digestJobID, func(after time.Time) time.Time {
		return nextMonthlyFire(after, sorted, hour, minute, p.location)
	}, func(ctx context.Context) {
		p.fireDigest(ctx, destination)
	})
	p.logger.Info("announcement digest scheduled", "days", sorted, "destination", destination)
}

func (p *Planner) fireDigest(ctx context.Context, destination int64) {
	logger := p.logger.With("job", "digest", "destination", destination)

	now := p.now().UTC()
	meetings, err := p.meetings.ListActiveMeetingsFrom(ctx, now)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list meetings for digest", "error", err)
		return
	}

	text := p.formatDigest(meetings)
	if err := p.sender.Send(ctx, destination, text); err != nil {
		logger.WarnContext(ctx, "failed to deliver digest", "error", err)
		return
	}
	logger.InfoContext(ctx, "digest delivered", "meetings", len(meetings))
}

func (p *Planner) formatReminder(meeting persistence.Meeting) string {
	when := meeting.StartAt.In(p.location)
	location := "TBA"
	if meeting.Location != nil && *meeting.Location != "" {
		location = *meeting.Location
	}
	return fmt.Sprintf("Reminder: %s on %s at %s", meeting.Topic, when.Format("2006-01-02 15:04"), location)
}

func (p *Planner) formatDigest(meetings []persistence.Meeting) string {
	if len(meetings) == 0 {
		return noUpcomingMeetings
	}

	lines := []string{"Upcoming meetings:"}
	for i, meeting := range meetings {
		if i >= digestMaxEntries {
			break
		}
		when := meeting.StartAt.In(p.location)
		location := "TBA"
		if meeting.Location != nil && *meeting.Location != "" {
			location = *meeting.Location
		}
		lines = append(lines, fmt.Sprintf("#%d %s - %s @ %s", meeting.ID, meeting.Topic, when.Format("2006-01-02 15:04"), location))
	}
	return strings.Join(lines, "\n")
}

// nextMonthlyFire returns the first instant strictly after the reference that
// lands on one of the configured days of the month at the given local time.
// Days a month does not have (such as 31 in February) are skipped naturally.
func nextMonthlyFire(after time.Time, days []int, hour, minute int, loc *time.Location) time.Time {
	local := after.In(loc)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	// Two months of lookahead always contains a valid day from a non-empty
	// set of days 1..31.
	for i := 0; i < 62; i++ {
		for _, day := range days {
			if date.Day() != day {
				continue
			}
			candidate := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			if candidate.After(after) {
				return candidate
			}
		}
		date = date.AddDate(0, 0, 1)
	}

	return time.Time{}
}
