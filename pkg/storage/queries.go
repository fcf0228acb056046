package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SessionQuery represents query parameters for retrieving sessions
type SessionQuery struct {
	Limit     int
	Offset    int
	Since     *time.Time
	Until     *time.Time
	Model     string
	Direction string // "download", "upload", or "" for both
}

// SessionStats represents database statistics
type SessionStats struct {
	TotalSessions  int       `json:"total_sessions"`
	TotalDownloads int       `json:"total_downloads"`
	TotalUploads   int       `json:"total_uploads"`
	LastCleanup    time.Time `json:"last_cleanup"`
}

// GetSessions retrieves session summaries based on query parameters.
// The raw images stay in the database; use GetImage for those.
func (hs *HistoryStore) GetSessions(query SessionQuery) ([]Session, error) {
	var args []interface{}
	var conditions []string

	sqlQuery := `
		SELECT id, timestamp, model, device, direction, image_size, checksum, note
		FROM sessions
		WHERE 1=1
	`

	if query.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, query.Since)
	}

	if query.Until != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, query.Until)
	}

	if query.Model != "" {
		conditions = append(conditions, "model = ?")
		args = append(args, query.Model)
	}

	if query.Direction != "" {
		conditions = append(conditions, "direction = ?")
		args = append(args, query.Direction)
	}

	for _, condition := range conditions {
		sqlQuery += " AND " + condition
	}

	// Order by timestamp descending (newest first)
	sqlQuery += " ORDER BY timestamp DESC"

	if query.Limit > 0 {
		sqlQuery += " LIMIT ?"
		args = append(args, query.Limit)

		if query.Offset > 0 {
			sqlQuery += " OFFSET ?"
			args = append(args, query.Offset)
		}
	}

	rows, err := hs.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		err := rows.Scan(
			&s.ID,
			&s.Timestamp,
			&s.Model,
			&s.Device,
			&s.Direction,
			&s.ImageSize,
			&s.Checksum,
			&s.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// GetImage retrieves the raw memory image of one session
func (hs *HistoryStore) GetImage(id int64) ([]byte, error) {
	var image []byte
	err := hs.db.QueryRow("SELECT image FROM sessions WHERE id = ?", id).Scan(&image)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return image, nil
}

// GetLatestImage retrieves the most recent downloaded image for a model
func (hs *HistoryStore) GetLatestImage(model string) ([]byte, error) {
	var image []byte
	err := hs.db.QueryRow(`
		SELECT image FROM sessions
		WHERE model = ? AND direction = 'download'
		ORDER BY timestamp DESC LIMIT 1
	`, model).Scan(&image)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no downloaded image for model %q", model)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest image: %w", err)
	}
	return image, nil
}

// GetSessionStats retrieves database statistics
func (hs *HistoryStore) GetSessionStats() (*SessionStats, error) {
	var stats SessionStats
	var lastCleanup sql.NullTime

	err := hs.db.QueryRow(`
		SELECT total_sessions, total_downloads, total_uploads, last_cleanup
		FROM session_stats WHERE id = 1
	`).Scan(&stats.TotalSessions, &stats.TotalDownloads, &stats.TotalUploads, &lastCleanup)

	if err != nil {
		return nil, fmt.Errorf("failed to get session stats: %w", err)
	}

	if lastCleanup.Valid {
		stats.LastCleanup = lastCleanup.Time
	}

	return &stats, nil
}
