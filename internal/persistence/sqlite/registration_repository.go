package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/community-meetings/internal/persistence"
)

// RegistrationRepository implements persistence.RegistrationRepository using
// SQLite.
type RegistrationRepository struct {
	pool *ConnectionPool
}

// NewRegistrationRepository creates a new SQLite registration repository.
func NewRegistrationRepository(pool *ConnectionPool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Register decides confirmed vs waitlisted and inserts the row inside one
// transaction so two concurrent calls cannot both observe a free slot. The
// partial unique index on live (meeting_id, user_id) rows backs the duplicate
// check against races the transaction cannot see.
func (r *RegistrationRepository) Register(ctx context.Context, id string, meetingID, userID int64, now time.Time) (persistence.RegistrationStatus, error) {
	if id == "" {
		return "", persistence.ErrConstraintViolation
	}

	var status persistence.RegistrationStatus
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var capacity int
		var canceledAt sql.NullString
		err := tx.QueryRow(
			`SELECT capacity, canceled_at FROM meetings WHERE id = ?`, meetingID,
		).Scan(&capacity, &canceledAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return mapError(err)
		}
		if canceledAt.Valid {
			return persistence.ErrNotFound
		}

		var live int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM registrations
			 WHERE meeting_id = ? AND user_id = ? AND status IN ('confirmed', 'waitlisted')`,
			meetingID, userID,
		).Scan(&live)
		if err != nil {
			return mapError(err)
		}
		if live > 0 {
			return persistence.ErrDuplicate
		}

		var confirmed int
		err = tx.QueryRow(
			`SELECT COUNT(*) FROM registrations WHERE meeting_id = ? AND status = 'confirmed'`,
			meetingID,
		).Scan(&confirmed)
		if err != nil {
			return mapError(err)
		}

		status = persistence.StatusConfirmed
		if confirmed >= capacity {
			status = persistence.StatusWaitlisted
		}

		_, err = tx.Exec(
			`INSERT INTO registrations (id, meeting_id, user_id, status, is_host, created_at)
			 VALUES (?, ?, ?, ?, 0, ?)`,
			id, meetingID, userID, string(status), formatTime(now),
		)
		if err != nil {
			return mapError(err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return status, nil
}

// Unregister flips the live registration for (meeting, user) to canceled.
// The freed slot is not handed to a waitlisted registrant.
func (r *RegistrationRepository) Unregister(ctx context.Context, meetingID, userID int64) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE registrations SET status = 'canceled'
			 WHERE meeting_id = ? AND user_id = ? AND status IN ('confirmed', 'waitlisted')`,
			meetingID, userID,
		)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// ConfirmedCount returns the live count of confirmed registrations.
func (r *RegistrationRepository) ConfirmedCount(ctx context.Context, meetingID int64) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE meeting_id = ? AND status = 'confirmed'`,
		meetingID,
	).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// HostCount counts confirmed registrations carrying the host flag.
func (r *RegistrationRepository) HostCount(ctx context.Context, meetingID int64) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE meeting_id = ? AND status = 'confirmed' AND is_host = 1`,
		meetingID,
	).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// ListConfirmedForMeeting returns confirmed registrations ordered by creation.
func (r *RegistrationRepository) ListConfirmedForMeeting(ctx context.Context, meetingID int64) ([]persistence.Registration, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, meeting_id, user_id, status, is_host, created_at
		 FROM registrations
		 WHERE meeting_id = ? AND status = 'confirmed'
		 ORDER BY created_at ASC, id ASC`,
		meetingID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var registrations []persistence.Registration
	for rows.Next() {
		var reg persistence.Registration
		var status, createdAt string
		var isHost int
		if err := rows.Scan(&reg.ID, &reg.MeetingID, &reg.UserID, &status, &isHost, &createdAt); err != nil {
			return nil, mapError(err)
		}
		reg.Status = persistence.RegistrationStatus(status)
		reg.Host = isHost != 0
		if reg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		registrations = append(registrations, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return registrations, nil
}

// ListMeetingsForUser returns active meetings with StartAt >= from for which
// the user holds a live registration, ordered by start ascending.
func (r *RegistrationRepository) ListMeetingsForUser(ctx context.Context, userID int64, from time.Time) ([]persistence.Meeting, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT m.id, m.topic, m.description, m.start_at, m.capacity, m.location, m.created_by, m.created_at, m.updated_at, m.canceled_at
		 FROM meetings m
		 JOIN registrations r ON r.meeting_id = m.id
		 WHERE r.user_id = ? AND r.status IN ('confirmed', 'waitlisted')
		   AND m.canceled_at IS NULL AND m.start_at >= ?
		 ORDER BY m.start_at ASC, m.id ASC`,
		userID, formatTime(from),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectMeetings(rows)
}
