package application

import "time"

// UserProfile carries the identity fields delivered by the upstream platform
// on every interaction.
type UserProfile struct {
	ID       int64
	Name     string
	Username *string
}

// MeetingInput is a fully-populated meeting creation request. Collecting the
// fields step by step is the UI layer's job; the engine only ever sees the
// complete set.
type MeetingInput struct {
	Topic       string
	Description string
	StartAt     time.Time
	Capacity    int
	Location    *string
}

// Meeting is the application view of a persisted meeting.
type Meeting struct {
	ID          int64
	Topic       string
	Description string
	StartAt     time.Time
	Capacity    int
	Location    *string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CanceledAt  *time.Time
}

// MeetingSummary is the listing/detail view exposed at the boundary.
type MeetingSummary struct {
	ID             int64
	Topic          string
	Description    string
	StartAt        time.Time
	Capacity       int
	ConfirmedCount int
	HostCount      int
	Location       *string
	HostName       string
}

// AvailableSlots reports how many confirmed slots remain, never negative.
func (s MeetingSummary) AvailableSlots() int {
	available := s.Capacity - s.ConfirmedCount
	if available < 0 {
		return 0
	}
	return available
}

// RegistrationResult enumerates the outcomes of register and unregister
// operations. Rejections are informational results, not failures.
type RegistrationResult string

const (
	ResultConfirmed         RegistrationResult = "confirmed"
	ResultWaitlisted        RegistrationResult = "waitlisted"
	ResultAlreadyRegistered RegistrationResult = "already_registered"
	ResultNotFound          RegistrationResult = "not_found"
	ResultUnregistered      RegistrationResult = "unregistered"
	ResultNotRegistered     RegistrationResult = "not_registered"
)

// RegistrationOutcome pairs a result status with the human-readable message
// the UI layer relays to the user.
type RegistrationOutcome struct {
	Status  RegistrationResult
	Message string
}
