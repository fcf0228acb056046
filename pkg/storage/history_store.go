package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HistoryStore records clone sessions in SQLite: every image moved to
// or from a radio, with the raw dump, so earlier radio states can be
// restored.
type HistoryStore struct {
	db         *sql.DB
	dbPath     string
	maxEntries int
}

// Session is one recorded clone transfer.
type Session struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model"`
	Device    string    `json:"device"`
	Direction string    `json:"direction"` // "download" or "upload"
	ImageSize int       `json:"image_size"`
	Checksum  int       `json:"checksum"`
	Note      string    `json:"note"`
}

// NewHistoryStore creates a clone history store with SQLite backend
func NewHistoryStore(dbPath string, maxEntries int) (*HistoryStore, error) {
	store := &HistoryStore{
		dbPath:     dbPath,
		maxEntries: maxEntries,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	return store, nil
}

// initialize sets up the database connection and creates tables
func (hs *HistoryStore) initialize() error {
	if hs.dbPath == "" {
		hs.dbPath = "./yaesud.db"
	}

	if err := os.MkdirAll(filepath.Dir(hs.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := hs.dbPath + "?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	hs.db = db

	if err := hs.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := hs.createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Printf("History store initialized: %s (max %d entries)", hs.dbPath, hs.maxEntries)
	return nil
}

// createTables creates the database schema
func (hs *HistoryStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		model TEXT NOT NULL,
		device TEXT NOT NULL DEFAULT '',
		direction TEXT NOT NULL CHECK (direction IN ('download', 'upload')),
		image_size INTEGER NOT NULL,
		checksum INTEGER NOT NULL,
		image BLOB NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS session_stats (
		id INTEGER PRIMARY KEY,
		total_sessions INTEGER NOT NULL DEFAULT 0,
		total_downloads INTEGER NOT NULL DEFAULT 0,
		total_uploads INTEGER NOT NULL DEFAULT 0,
		last_cleanup DATETIME,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Initialize stats if empty
	INSERT OR IGNORE INTO session_stats (id, total_sessions, total_downloads, total_uploads)
	VALUES (1, 0, 0, 0);
	`

	_, err := hs.db.Exec(schema)
	return err
}

// createIndexes creates database indexes for performance
func (hs *HistoryStore) createIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_model ON sessions(model)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_direction ON sessions(direction)",
	}

	for _, indexSQL := range indexes {
		if _, err := hs.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// StoreSession records one clone transfer with its raw image.
func (hs *HistoryStore) StoreSession(model, device, direction string, image []byte, checksum byte, note string) (int64, error) {
	tx, err := hs.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sessions (timestamp, model, device, direction, image_size, checksum, image, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.Exec(query,
		time.Now().UTC(), model, device, direction, len(image), int(checksum), image, note,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	sessionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session ID: %w", err)
	}

	if err := hs.updateStats(tx, direction); err != nil {
		return 0, fmt.Errorf("failed to update stats: %w", err)
	}

	if err := hs.cleanupOldSessions(tx); err != nil {
		log.Printf("Warning: failed to cleanup old sessions: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return sessionID, nil
}

// updateStats updates transfer statistics
func (hs *HistoryStore) updateStats(tx *sql.Tx, direction string) error {
	query := `
		UPDATE session_stats SET
			total_sessions = total_sessions + 1,
			total_downloads = CASE WHEN ? = 'download' THEN total_downloads + 1 ELSE total_downloads END,
			total_uploads = CASE WHEN ? = 'upload' THEN total_uploads + 1 ELSE total_uploads END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`

	_, err := tx.Exec(query, direction, direction)
	return err
}

// CleanupOldSessions removes sessions beyond the maximum limit (exported for manual cleanup)
func (hs *HistoryStore) CleanupOldSessions() error {
	tx, err := hs.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := hs.cleanupOldSessions(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// cleanupOldSessions removes sessions beyond the maximum limit
func (hs *HistoryStore) cleanupOldSessions(tx *sql.Tx) error {
	if hs.maxEntries <= 0 {
		return nil // No limit
	}

	var count int
	err := tx.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	if err != nil {
		return err
	}

	if count <= hs.maxEntries {
		return nil // Within limit
	}

	deleteCount := count - hs.maxEntries
	query := `
		DELETE FROM sessions
		WHERE id IN (
			SELECT id FROM sessions
			ORDER BY timestamp ASC
			LIMIT ?
		)
	`

	_, err = tx.Exec(query, deleteCount)
	if err != nil {
		return err
	}

	_, err = tx.Exec("UPDATE session_stats SET last_cleanup = CURRENT_TIMESTAMP WHERE id = 1")
	return err
}

// Close closes the database connection
func (hs *HistoryStore) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}
