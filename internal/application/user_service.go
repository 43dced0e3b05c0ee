package application

import (
	"context"
	"log/slog"
	"strings"

	"github.com/example/community-meetings/internal/persistence"
)

// UserStore captures the persistence interactions needed by the user service.
type UserStore interface {
	UpsertUser(ctx context.Context, user persistence.User) (persistence.User, error)
	GetUser(ctx context.Context, id int64) (persistence.User, error)
}

// UserService records users on first interaction and refreshes their
// display fields afterwards.
type UserService struct {
	users  UserStore
	logger *slog.Logger
}

// NewUserService wires dependencies for user operations.
func NewUserService(users UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: defaultLogger(logger)}
}

// EnsureUser creates or refreshes the user row for the interacting profile.
func (s *UserService) EnsureUser(ctx context.Context, profile UserProfile) (UserProfile, error) {
	vErr := &ValidationError{}
	if profile.ID == 0 {
		vErr.add("user_id", "user id is required")
	}
	if strings.TrimSpace(profile.Name) == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return UserProfile{}, vErr
	}

	stored, err := s.users.UpsertUser(ctx, persistence.User{
		ID:       profile.ID,
		Name:     strings.TrimSpace(profile.Name),
		Username: profile.Username,
	})
	if err != nil {
		serviceLogger(ctx, s.logger, "users", "ensure_user", "user_id", profile.ID).
			ErrorContext(ctx, "failed to upsert user", "error", err, "error_kind", ErrorKind(err))
		return UserProfile{}, err
	}

	return UserProfile{ID: stored.ID, Name: stored.Name, Username: stored.Username}, nil
}

// DisplayName resolves a user's presentation name, preferring the full name
// and falling back to the handle.
func (s *UserService) DisplayName(ctx context.Context, id int64) (string, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return "", mapRepoError(err)
	}
	if user.Name != "" {
		return user.Name, nil
	}
	if user.Username != nil {
		return "@" + *user.Username, nil
	}
	return "", nil
}
