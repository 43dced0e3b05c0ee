package persistence

import "context"
import "time"

// UserRepository stores platform users.
type UserRepository interface {
	// UpsertUser creates the user on first interaction or refreshes the
	// display name and handle on subsequent ones. CreatedAt is preserved
	// for existing rows.
	UpsertUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
}

// MeetingRepository stores meetings. Creation assigns the monotonic meeting id
// and inserts the host registration in the same transaction: either both rows
// become visible or neither does.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting, host Registration) (Meeting, error)
	GetMeeting(ctx context.Context, id int64) (Meeting, error)
	// ListActiveMeetingsFrom returns non-canceled meetings with StartAt >= from,
	// ordered by StartAt ascending.
	ListActiveMeetingsFrom(ctx context.Context, from time.Time) ([]Meeting, error)
	// UpdateMeetingStart reestablishes the start instant and bumps UpdatedAt.
	UpdateMeetingStart(ctx context.Context, id int64, start, now time.Time) (Meeting, error)
	// CancelMeeting records the cancellation instant. Canceling an already
	// canceled meeting returns ErrNotFound.
	CancelMeeting(ctx context.Context, id int64, at time.Time) error
}

// RegistrationRepository stores registrations and answers occupancy queries.
type RegistrationRepository interface {
	// Register runs the whole read-decide-insert sequence in one transaction:
	// reject missing or canceled meetings with ErrNotFound, reject an existing
	// live (meeting, user) registration with ErrDuplicate, then insert a
	// confirmed row while the live confirmed count is below capacity and a
	// waitlisted row otherwise. The returned status is the inserted one.
	Register(ctx context.Context, id string, meetingID, userID int64, now time.Time) (RegistrationStatus, error)
	// Unregister flips the live registration for (meeting, user) to canceled.
	// ErrNotFound when no live registration exists.
	Unregister(ctx context.Context, meetingID, userID int64) error
	// ConfirmedCount is the live count of confirmed registrations. Capacity
	// checks always use this query, never a cached counter.
	ConfirmedCount(ctx context.Context, meetingID int64) (int, error)
	// HostCount counts confirmed registrations carrying the host flag.
	HostCount(ctx context.Context, meetingID int64) (int, error)
	ListConfirmedForMeeting(ctx context.Context, meetingID int64) ([]Registration, error)
	// ListMeetingsForUser returns active meetings with StartAt >= from for
	// which the user holds a live registration, ordered by StartAt ascending.
	ListMeetingsForUser(ctx context.Context, userID int64, from time.Time) ([]Meeting, error)
}
