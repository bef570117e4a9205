package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"meetingd/internal/modules/alert/domain"
	alertout "meetingd/internal/modules/alert/port/out"
	"meetingd/internal/platform/sqlite"
)

type SQLiteAlertLog struct {
	db *sql.DB
}

func NewSQLiteAlertLog(db *sql.DB) alertout.AlertLog {
	return &SQLiteAlertLog{db: db}
}

func (l *SQLiteAlertLog) Record(ctx context.Context, alert domain.Alert, outcome domain.Outcome) error {
	contextJSON := []byte("{}")
	if len(alert.Context) > 0 {
		raw, err := json.Marshal(alert.Context)
		if err != nil {
			return fmt.Errorf("encode alert context: %w", err)
		}
		contextJSON = raw
	}
	throttled := 0
	if outcome.Throttled {
		throttled = 1
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO meeting_errors (
			id, organization_id, team_id, session_id, user_id, error_type, severity,
			message, context, meeting_phase, delivered, throttled, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID, alert.OrganizationID, alert.TeamID, alert.SessionID, alert.UserID,
		string(alert.Type), string(alert.Severity), alert.Message, string(contextJSON),
		alert.Phase, outcome.DeliveredCount(), throttled, sqlite.FormatTime(alert.OccurredAt),
	)
	if err != nil {
		return fmt.Errorf("insert meeting error: %w", err)
	}
	return nil
}

func (l *SQLiteAlertLog) Recent(ctx context.Context, organizationID string, limit int) ([]alertout.Record, error) {
	query := `
		SELECT id, organization_id, team_id, session_id, user_id, error_type, severity,
			message, context, meeting_phase, delivered, throttled, created_at
		FROM meeting_errors`
	args := []any{}
	if organizationID != "" {
		query += ` WHERE organization_id = ?`
		args = append(args, organizationID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query meeting errors: %w", err)
	}
	defer rows.Close()

	out := []alertout.Record{}
	for rows.Next() {
		var (
			record      alertout.Record
			errorType   string
			severity    string
			contextJSON string
			throttled   int
			createdAt   string
		)
		if err := rows.Scan(
			&record.Alert.ID, &record.Alert.OrganizationID, &record.Alert.TeamID,
			&record.Alert.SessionID, &record.Alert.UserID, &errorType, &severity,
			&record.Alert.Message, &contextJSON, &record.Alert.Phase,
			&record.Delivered, &throttled, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan meeting error: %w", err)
		}
		record.Alert.Type = domain.ErrorType(errorType)
		record.Alert.Severity = domain.Severity(severity)
		record.Throttled = throttled == 1
		if contextJSON != "" && contextJSON != "{}" {
			if err := json.Unmarshal([]byte(contextJSON), &record.Alert.Context); err != nil {
				return nil, fmt.Errorf("decode alert context: %w", err)
			}
		}
		occurredAt, err := sqlite.ParseTime(createdAt)
		if err != nil {
			return nil, err
		}
		record.Alert.OccurredAt = occurredAt
		out = append(out, record)
	}
	return out, rows.Err()
}
