package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"meetingd/internal/modules/session/domain"
	sessionout "meetingd/internal/modules/session/port/out"
	"meetingd/internal/platform/sqlite"
)

type SQLiteSnapshotStore struct {
	db *sql.DB
}

func NewSQLiteSnapshotStore(db *sql.DB) sessionout.SnapshotStore {
	return &SQLiteSnapshotStore{db: db}
}

// Save writes the snapshot once; a second snapshot for the same session is rejected.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snapshot domain.Snapshot) (string, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	var rating sql.NullFloat64
	if snapshot.AverageRating != nil {
		rating = sql.NullFloat64{Float64: *snapshot.AverageRating, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO meeting_snapshots (
			id, session_id, organization_id, team_id, facilitator_id, meeting_type,
			meeting_date, duration_minutes, average_rating, snapshot_data, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.SessionID, snapshot.OrganizationID, snapshot.TeamID, snapshot.FacilitatorID,
		snapshot.Kind, sqlite.FormatTime(snapshot.MeetingDate), snapshot.DurationMinutes, rating,
		string(payload), sqlite.FormatTime(snapshot.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", fmt.Errorf("session %s already has a snapshot", snapshot.SessionID)
		}
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	return "meeting_snapshots/" + snapshot.ID, nil
}
