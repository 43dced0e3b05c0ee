package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/community-meetings/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// UpsertUser inserts the user on first interaction or refreshes the name and
// handle of an existing row. The stored CreatedAt is preserved on update.
func (r *UserRepository) UpsertUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if user.ID == 0 {
		return persistence.User{}, persistence.ErrConstraintViolation
	}

	var out persistence.User
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := getUserTx(tx, user.ID)
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			if user.CreatedAt.IsZero() {
				user.CreatedAt = time.Now()
			}
			// Stored timestamps carry second precision only.
			user.CreatedAt = user.CreatedAt.UTC().Truncate(time.Second)
			_, err := tx.Exec(
				`INSERT INTO users (id, name, username, created_at) VALUES (?, ?, ?, ?)`,
				user.ID, user.Name, nullableString(user.Username), formatTime(user.CreatedAt),
			)
			if err != nil {
				return mapError(err)
			}
			out = user
			out.CreatedAt = user.CreatedAt.UTC()
			return nil
		case err != nil:
			return err
		}

		_, err = tx.Exec(
			`UPDATE users SET name = ?, username = ? WHERE id = ?`,
			user.Name, nullableString(user.Username), user.ID,
		)
		if err != nil {
			return mapError(err)
		}
		out = existing
		out.Name = user.Name
		out.Username = user.Username
		return nil
	})
	if err != nil {
		return persistence.User{}, err
	}

	return out, nil
}

// GetUser retrieves a user by the platform-issued id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, username, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func getUserTx(tx *sql.Tx, id int64) (persistence.User, error) {
	row := tx.QueryRow(`SELECT id, name, username, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (persistence.User, error) {
	var user persistence.User
	var username sql.NullString
	var createdAt string

	err := row.Scan(&user.ID, &user.Name, &username, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapError(err)
	}

	if username.Valid {
		value := username.String
		user.Username = &value
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}

	return user, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
