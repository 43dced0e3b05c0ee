package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/community-meetings/internal/persistence"
)

var (
	userCounter    int64
	meetingCounter uint64
)

var referenceTime = time.Date(2026, time.March, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures the generated user fixture.
type UserOption func(*persistence.User)

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(u *persistence.User) { u.Name = name }
}

// WithUsername sets the optional handle.
func WithUsername(username string) UserOption {
	return func(u *persistence.User) { u.Username = &username }
}

// NewUserFixture returns a deterministic user record with optional overrides.
// Identifiers start at 1000 so they never collide with hand-picked ids in
// individual tests.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddInt64(&userCounter, 1)
	user := persistence.User{
		ID:        1000 + idx,
		Name:      fmt.Sprintf("User %03d", idx),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// MeetingOption configures the generated meeting fixture.
type MeetingOption func(*persistence.Meeting)

// WithTopic overrides the generated topic.
func WithTopic(topic string) MeetingOption {
	return func(m *persistence.Meeting) { m.Topic = topic }
}

// WithStartAt sets the meeting start time.
func WithStartAt(start time.Time) MeetingOption {
	return func(m *persistence.Meeting) { m.StartAt = start }
}

// WithCapacity sets the attendee capacity.
func WithCapacity(capacity int) MeetingOption {
	return func(m *persistence.Meeting) { m.Capacity = capacity }
}

// WithCreatedBy sets the hosting user id.
func WithCreatedBy(userID int64) MeetingOption {
	return func(m *persistence.Meeting) { m.CreatedBy = userID }
}

// WithLocation sets the optional venue.
func WithLocation(location string) MeetingOption {
	return func(m *persistence.Meeting) { m.Location = &location }
}

// NewMeetingFixture returns a deterministic meeting record with optional
// overrides. The start time steps one hour per fixture so ordered listings
// stay stable.
func NewMeetingFixture(opts ...MeetingOption) persistence.Meeting {
	idx := atomic.AddUint64(&meetingCounter, 1)
	meeting := persistence.Meeting{
		Topic:       fmt.Sprintf("Meeting %03d", idx),
		Description: fmt.Sprintf("Agenda for meeting %03d", idx),
		StartAt:     referenceTime.Add(24*time.Hour + time.Duration(idx)*time.Hour),
		Capacity:    5,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&meeting)
	}
	return meeting
}
