package persistence

import "time"

// User represents a community member interacting with the bot. The identifier
// is issued by the upstream messaging platform and never generated here.
type User struct {
	ID        int64
	Name      string
	Username  *string
	CreatedAt time.Time
}

// Meeting represents a community meeting hosted by a user. StartAt is always
// a UTC instant; presentation-local conversion happens at the boundary.
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

// Active reports whether the meeting has not been canceled.
func (m Meeting) Active() bool {
	return m.CanceledAt == nil
}

// RegistrationStatus enumerates the lifecycle states of a registration.
type RegistrationStatus string

const (
	StatusConfirmed  RegistrationStatus = "confirmed"
	StatusWaitlisted RegistrationStatus = "waitlisted"
	StatusCanceled   RegistrationStatus = "canceled"
)

// Live reports whether the status counts as an existing registration.
// Canceled rows stay in the table but are not live.
func (s RegistrationStatus) Live() bool {
	return s == StatusConfirmed || s == StatusWaitlisted
}

// Registration links a user to a meeting with a status and host flag.
type Registration struct {
	ID        string
	MeetingID int64
	UserID    int64
	Status    RegistrationStatus
	Host      bool
	CreatedAt time.Time
}
