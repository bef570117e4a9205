package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"meetingd/internal/modules/session/domain"
	sessionout "meetingd/internal/modules/session/port/out"
	"meetingd/internal/platform/sqlite"
	"meetingd/internal/platform/tx"
)

type SQLitePauseLedger struct {
	db *sql.DB
}

func NewSQLitePauseLedger(db *sql.DB) sessionout.PauseLedger {
	return &SQLitePauseLedger{db: db}
}

func (l *SQLitePauseLedger) Append(ctx context.Context, event domain.PauseEvent) error {
	_, err := tx.From(ctx, l.db).ExecContext(ctx, `
		INSERT INTO meeting_pause_events (id, session_id, pause_time, paused_by, reason)
		VALUES (?, ?, ?, ?, ?)`,
		event.ID, event.SessionID, sqlite.FormatTime(event.PausedAt), event.PausedBy, event.Reason)
	if err != nil {
		return fmt.Errorf("insert pause event: %w", err)
	}
	return nil
}

// CloseOpen finalizes the open event; closed events are never updated.
func (l *SQLitePauseLedger) CloseOpen(ctx context.Context, event domain.PauseEvent) error {
	if event.ResumedAt == nil || event.DurationSeconds == nil {
		return fmt.Errorf("pause event %s is not closed", event.ID)
	}
	result, err := tx.From(ctx, l.db).ExecContext(ctx, `
		UPDATE meeting_pause_events SET resume_time = ?, resumed_by = ?, duration_seconds = ?
		WHERE id = ? AND resume_time IS NULL`,
		sqlite.FormatTime(*event.ResumedAt), event.ResumedBy, *event.DurationSeconds, event.ID)
	if err != nil {
		return fmt.Errorf("close pause event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close pause event: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pause event %s is not open", event.ID)
	}
	return nil
}

func (l *SQLitePauseLedger) FindOpen(ctx context.Context, sessionID string) (domain.PauseEvent, bool, error) {
	row := tx.From(ctx, l.db).QueryRowContext(ctx, `
		SELECT id, session_id, pause_time, resume_time, paused_by, resumed_by, reason, duration_seconds
		FROM meeting_pause_events WHERE session_id = ? AND resume_time IS NULL`, sessionID)
	event, err := scanPauseEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PauseEvent{}, false, nil
	}
	if err != nil {
		return domain.PauseEvent{}, false, err
	}
	return event, true, nil
}

func (l *SQLitePauseLedger) List(ctx context.Context, sessionID string) ([]domain.PauseEvent, error) {
	rows, err := tx.From(ctx, l.db).QueryContext(ctx, `
		SELECT id, session_id, pause_time, resume_time, paused_by, resumed_by, reason, duration_seconds
		FROM meeting_pause_events WHERE session_id = ? ORDER BY pause_time`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query pause events: %w", err)
	}
	defer rows.Close()
	out := []domain.PauseEvent{}
	for rows.Next() {
		event, err := scanPauseEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func scanPauseEvent(row scanner) (domain.PauseEvent, error) {
	var (
		event     domain.PauseEvent
		pausedAt  string
		resumedAt sql.NullString
		duration  sql.NullInt64
	)
	if err := row.Scan(&event.ID, &event.SessionID, &pausedAt, &resumedAt, &event.PausedBy, &event.ResumedBy, &event.Reason, &duration); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PauseEvent{}, err
		}
		return domain.PauseEvent{}, fmt.Errorf("scan pause event: %w", err)
	}
	var err error
	if event.PausedAt, err = sqlite.ParseTime(pausedAt); err != nil {
		return domain.PauseEvent{}, err
	}
	if event.ResumedAt, err = sqlite.ParseNullTime(resumedAt); err != nil {
		return domain.PauseEvent{}, err
	}
	if duration.Valid {
		seconds := duration.Int64
		event.DurationSeconds = &seconds
	}
	return event, nil
}
