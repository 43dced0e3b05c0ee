package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/community-meetings/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite.
type MeetingRepository struct {
	pool *ConnectionPool
}

// NewMeetingRepository creates a new SQLite meeting repository.
func NewMeetingRepository(pool *ConnectionPool) *MeetingRepository {
	return &MeetingRepository{pool: pool}
}

const meetingColumns = `id, topic, description, start_at, capacity, location, created_by, created_at, updated_at, canceled_at`

// CreateMeeting inserts the meeting and the host's confirmed registration in
// one transaction. The engine-assigned monotonic id is written back into the
// returned meeting and host registration.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting, host persistence.Registration) (persistence.Meeting, error) {
	if meeting.Capacity < 1 {
		return persistence.Meeting{}, persistence.ErrConstraintViolation
	}
	if !host.Status.Live() {
		return persistence.Meeting{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	if meeting.UpdatedAt.IsZero() {
		meeting.UpdatedAt = meeting.CreatedAt
	}
	if host.CreatedAt.IsZero() {
		host.CreatedAt = meeting.CreatedAt
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`INSERT INTO meetings (topic, description, start_at, capacity, location, created_by, created_at, updated_at, canceled_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			meeting.Topic,
			meeting.Description,
			formatTime(meeting.StartAt),
			meeting.Capacity,
			nullableString(meeting.Location),
			meeting.CreatedBy,
			formatTime(meeting.CreatedAt),
			formatTime(meeting.UpdatedAt),
			formatNullableTime(meeting.CanceledAt),
		)
		if err != nil {
			return mapError(err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: failed to read meeting id: %w", err)
		}
		meeting.ID = id

		_, err = tx.Exec(
			`INSERT INTO registrations (id, meeting_id, user_id, status, is_host, created_at)
			 VALUES (?, ?, ?, ?, 1, ?)`,
			host.ID, meeting.ID, host.UserID, string(host.Status), formatTime(host.CreatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		return nil
	})
	if err != nil {
		return persistence.Meeting{}, err
	}

	meeting.StartAt = meeting.StartAt.UTC()
	return meeting, nil
}

// GetMeeting retrieves a meeting by id.
func (r *MeetingRepository) GetMeeting(ctx context.Context, id int64) (persistence.Meeting, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id)
	return scanMeetingRow(row)
}

// ListActiveMeetingsFrom returns non-canceled meetings with StartAt >= from,
// ordered by start ascending with the id as tie break.
func (r *MeetingRepository) ListActiveMeetingsFrom(ctx context.Context, from time.Time) ([]persistence.Meeting, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings
		 WHERE canceled_at IS NULL AND start_at >= ?
		 ORDER BY start_at ASC, id ASC`,
		formatTime(from),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	return collectMeetings(rows)
}

// UpdateMeetingStart reestablishes the meeting's start instant. Reminder
// replanning is the caller's responsibility.
func (r *MeetingRepository) UpdateMeetingStart(ctx context.Context, id int64, start, now time.Time) (persistence.Meeting, error) {
	var updated persistence.Meeting
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE meetings SET start_at = ?, updated_at = ? WHERE id = ? AND canceled_at IS NULL`,
			formatTime(start), formatTime(now), id,
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

		updated, err = scanMeetingRow(tx.QueryRow(`SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return persistence.Meeting{}, err
	}
	return updated, nil
}

// CancelMeeting records the cancellation instant for an active meeting.
func (r *MeetingRepository) CancelMeeting(ctx context.Context, id int64, at time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE meetings SET canceled_at = ?, updated_at = ? WHERE id = ? AND canceled_at IS NULL`,
		formatTime(at), formatTime(at), id,
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
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeeting(scanner rowScanner) (persistence.Meeting, error) {
	var meeting persistence.Meeting
	var location sql.NullString
	var startAt, createdAt, updatedAt string
	var canceledAt sql.NullString

	err := scanner.Scan(
		&meeting.ID,
		&meeting.Topic,
		&meeting.Description,
		&startAt,
		&meeting.Capacity,
		&location,
		&meeting.CreatedBy,
		&createdAt,
		&updatedAt,
		&canceledAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Meeting{}, persistence.ErrNotFound
		}
		return persistence.Meeting{}, mapError(err)
	}

	if location.Valid {
		value := location.String
		meeting.Location = &value
	}
	if meeting.StartAt, err = parseTime(startAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Meeting{}, err
	}
	if canceledAt.Valid {
		value := canceledAt.String
		if meeting.CanceledAt, err = parseNullableTime(&value); err != nil {
			return persistence.Meeting{}, err
		}
	}

	return meeting, nil
}

func scanMeetingRow(row *sql.Row) (persistence.Meeting, error) {
	return scanMeeting(row)
}

func collectMeetings(rows *sql.Rows) ([]persistence.Meeting, error) {
	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return meetings, nil
}
