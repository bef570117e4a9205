package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"meetingd/internal/modules/session/domain"
	sessionout "meetingd/internal/modules/session/port/out"
	apperrors "meetingd/internal/platform/errors"
	"meetingd/internal/platform/sqlite"
	"meetingd/internal/platform/tx"
)

const sessionColumns = `
	id, organization_id, team_id, meeting_type, facilitator_id, is_active, is_paused,
	start_time, last_pause_time, last_resume_time, total_paused_duration,
	current_section, current_section_start, section_timings, sections_completed,
	ended_at, end_reason, created_at, updated_at`

type SQLiteSessionStore struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

func NewSQLiteSessionStore(db *sql.DB, logger logrus.FieldLogger) sessionout.SessionStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SQLiteSessionStore{db: db, logger: logger}
}

func (s *SQLiteSessionStore) Create(ctx context.Context, session domain.Session) error {
	row, err := encodeSession(session)
	if err != nil {
		return err
	}
	_, err = tx.From(ctx, s.db).ExecContext(ctx, `INSERT INTO meeting_sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, row...)
	if sqlite.IsUniqueViolation(err) {
		return fmt.Errorf("insert meeting session %s/%s: %w", session.TeamID, session.Kind, sessionout.ErrActiveSessionExists)
	}
	if err != nil {
		return fmt.Errorf("insert meeting session: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Save(ctx context.Context, session domain.Session) error {
	row, err := encodeSession(session)
	if err != nil {
		return err
	}
	// id leads the encoded row; move it to the WHERE clause.
	args := append(append([]any{}, row[1:]...), row[0])
	result, err := tx.From(ctx, s.db).ExecContext(ctx, `UPDATE meeting_sessions SET
		organization_id = ?, team_id = ?, meeting_type = ?, facilitator_id = ?, is_active = ?, is_paused = ?,
		start_time = ?, last_pause_time = ?, last_resume_time = ?, total_paused_duration = ?,
		current_section = ?, current_section_start = ?, section_timings = ?, sections_completed = ?,
		ended_at = ?, end_reason = ?, created_at = ?, updated_at = ?
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update meeting session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update meeting session: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	row := tx.From(ctx, s.db).QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM meeting_sessions WHERE id = ?`, sessionID)
	session, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, apperrors.ErrSessionNotFound
	}
	return session, err
}

func (s *SQLiteSessionStore) FindActive(ctx context.Context, teamID, kind string) (domain.Session, error) {
	row := tx.From(ctx, s.db).QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM meeting_sessions
		WHERE team_id = ? AND meeting_type = ? AND is_active = 1`, teamID, kind)
	session, err := s.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	return session, err
}

func (s *SQLiteSessionStore) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.Session, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `SELECT `+sessionColumns+` FROM meeting_sessions
		WHERE is_active = 1 AND start_time < ? ORDER BY start_time`, sqlite.FormatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("query stale sessions: %w", err)
	}
	defer rows.Close()
	out := []domain.Session{}
	for rows.Next() {
		session, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteSessionStore) scan(row scanner) (domain.Session, error) {
	var (
		session      domain.Session
		isActive     int
		isPaused     int
		startTime    string
		lastPause    sql.NullString
		lastResume   sql.NullString
		currentStart sql.NullString
		timingsRaw   any
		completedRaw string
		endedAt      sql.NullString
		endReason    string
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(
		&session.ID, &session.OrganizationID, &session.TeamID, &session.Kind, &session.FacilitatorID,
		&isActive, &isPaused, &startTime, &lastPause, &lastResume, &session.TotalPausedSeconds,
		&session.CurrentSectionID, &currentStart, &timingsRaw, &completedRaw,
		&endedAt, &endReason, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, err
		}
		return domain.Session{}, fmt.Errorf("scan meeting session: %w", err)
	}
	session.IsActive = isActive == 1
	session.IsPaused = isPaused == 1
	session.EndReason = domain.EndReason(endReason)

	var err error
	if session.StartTime, err = sqlite.ParseTime(startTime); err != nil {
		return domain.Session{}, err
	}
	if session.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return domain.Session{}, err
	}
	if session.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return domain.Session{}, err
	}
	for _, field := range []struct {
		raw  sql.NullString
		dest **time.Time
	}{
		{lastPause, &session.LastPauseTime},
		{lastResume, &session.LastResumeTime},
		{currentStart, &session.CurrentSectionStart},
		{endedAt, &session.EndedAt},
	} {
		if *field.dest, err = sqlite.ParseNullTime(field.raw); err != nil {
			return domain.Session{}, err
		}
	}

	session.SectionTimings = s.normalizeTimings(session.ID, timingsRaw)
	if err := json.Unmarshal([]byte(completedRaw), &session.SectionsCompletedOrder); err != nil {
		s.logger.WithError(err).WithField("session_id", session.ID).Warn("discarding malformed completed sections")
		session.SectionsCompletedOrder = nil
	}
	return session, nil
}

// normalizeTimings turns the stored timing column into the typed map. The
// column has held both JSON text and raw bytes; anything unreadable becomes
// an empty map so business logic never sees the ambiguity.
func (s *SQLiteSessionStore) normalizeTimings(sessionID string, raw any) map[string]domain.SectionTiming {
	var payload []byte
	switch v := raw.(type) {
	case nil:
		return map[string]domain.SectionTiming{}
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		s.logger.WithField("session_id", sessionID).Warnf("unexpected section timings type %T", raw)
		return map[string]domain.SectionTiming{}
	}
	if strings.TrimSpace(string(payload)) == "" {
		return map[string]domain.SectionTiming{}
	}
	timings := map[string]domain.SectionTiming{}
	if err := json.Unmarshal(payload, &timings); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("discarding malformed section timings")
		return map[string]domain.SectionTiming{}
	}
	return timings
}

func encodeSession(session domain.Session) ([]any, error) {
	timings := session.SectionTimings
	if timings == nil {
		timings = map[string]domain.SectionTiming{}
	}
	timingsJSON, err := json.Marshal(timings)
	if err != nil {
		return nil, fmt.Errorf("encode section timings: %w", err)
	}
	completed := session.SectionsCompletedOrder
	if completed == nil {
		completed = []string{}
	}
	completedJSON, err := json.Marshal(completed)
	if err != nil {
		return nil, fmt.Errorf("encode completed sections: %w", err)
	}
	return []any{
		session.ID, session.OrganizationID, session.TeamID, session.Kind, session.FacilitatorID,
		boolInt(session.IsActive), boolInt(session.IsPaused),
		sqlite.FormatTime(session.StartTime), sqlite.NullTime(session.LastPauseTime), sqlite.NullTime(session.LastResumeTime),
		session.TotalPausedSeconds, session.CurrentSectionID, sqlite.NullTime(session.CurrentSectionStart),
		string(timingsJSON), string(completedJSON), sqlite.NullTime(session.EndedAt), string(session.EndReason),
		sqlite.FormatTime(session.CreatedAt), sqlite.FormatTime(session.UpdatedAt),
	}, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
