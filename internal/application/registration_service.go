package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/community-meetings/internal/persistence"
)

// Human messages relayed to users through the UI layer.
const (
	msgRegistered        = "Registered successfully."
	msgWaitlisted        = "Meeting is full. You are added to the waitlist."
	msgAlreadyRegistered = "You are already registered."
	msgMeetingNotFound   = "Meeting not found or canceled."
	msgUnregistered      = "You have been unregistered."
	msgNotRegistered     = "You are not registered."
)

// RegistrationService enforces capacity and waitlist rules on top of the
// registration repository. Confirmation order is first come, first served.
type RegistrationService struct {
	registrations persistence.RegistrationRepository
	idGenerator   func() string
	now           func() time.Time
	logger        *slog.Logger
}

// NewRegistrationService wires dependencies for registration operations.
func NewRegistrationService(registrations persistence.RegistrationRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RegistrationService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &RegistrationService{
		registrations: registrations,
		idGenerator:   idGenerator,
		now:           now,
		logger:        defaultLogger(logger),
	}
}

// Register attempts to register the user for the meeting. The repository runs
// the duplicate check, occupancy read and insert in one atomic unit, so the
// outcome here is a plain mapping of its result.
func (s *RegistrationService) Register(ctx context.Context, meetingID, userID int64) (RegistrationOutcome, error) {
	logger := serviceLogger(ctx, s.logger, "registrations", "register", "meeting_id", meetingID, "user_id", userID)

	status, err := s.registrations.Register(ctx, s.idGenerator(), meetingID, userID, s.now().UTC())
	switch {
	case err == nil:
	case errors.Is(err, persistence.ErrNotFound):
		return RegistrationOutcome{Status: ResultNotFound, Message: msgMeetingNotFound}, nil
	case errors.Is(err, persistence.ErrDuplicate):
		return RegistrationOutcome{Status: ResultAlreadyRegistered, Message: msgAlreadyRegistered}, nil
	default:
		logger.ErrorContext(ctx, "failed to register", "error", err, "error_kind", ErrorKind(err))
		return RegistrationOutcome{}, err
	}

	if status == persistence.StatusWaitlisted {
		logger.InfoContext(ctx, "registration waitlisted")
		return RegistrationOutcome{Status: ResultWaitlisted, Message: msgWaitlisted}, nil
	}

	logger.InfoContext(ctx, "registration confirmed")
	return RegistrationOutcome{Status: ResultConfirmed, Message: msgRegistered}, nil
}

// Unregister flips the user's live registration to canceled. The freed
// confirmed slot is not handed to a waitlisted registrant; promotion is an
// explicit product decision this engine does not take.
func (s *RegistrationService) Unregister(ctx context.Context, meetingID, userID int64) (RegistrationOutcome, error) {
	logger := serviceLogger(ctx, s.logger, "registrations", "unregister", "meeting_id", meetingID, "user_id", userID)

	err := s.registrations.Unregister(ctx, meetingID, userID)
	switch {
	case err == nil:
	case errors.Is(err, persistence.ErrNotFound):
		return RegistrationOutcome{Status: ResultNotRegistered, Message: msgNotRegistered}, nil
	default:
		logger.ErrorContext(ctx, "failed to unregister", "error", err, "error_kind", ErrorKind(err))
		return RegistrationOutcome{}, err
	}

	logger.InfoContext(ctx, "registration canceled")
	return RegistrationOutcome{Status: ResultUnregistered, Message: msgUnregistered}, nil
}
