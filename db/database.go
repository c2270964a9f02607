// Package db persists learning progress and settings per user profile
// in a local sqlite database. The engine treats it as a plain storage
// collaborator: load at session start, save after every mutation.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

type DB struct {
	*sql.DB
}

func InitDB(dbPath string) (*DB, error) {
	utils.LogStartup("Initializing database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		utils.LogError("Failed to open database: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		utils.LogError("Failed to ping database: %v", err)
		return nil, err
	}

	utils.LogStartup("Database connection established")

	if err := createTables(db); err != nil {
		utils.LogError("Failed to create tables: %v", err)
		return nil, err
	}

	utils.LogStartup("Database tables initialized successfully")
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Local user profiles; isolated by independent keys, never
		// accessed concurrently from more than one active session.
		`CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Flash cards; position preserves insertion order, which the
		// scheduler relies on for new-card FIFO.
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			lesson_id TEXT,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			box_number INTEGER NOT NULL DEFAULT -1,
			last_review DATETIME,
			next_review DATETIME,
			review_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			incorrect_count INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS injected_lessons (
			user_id INTEGER NOT NULL,
			lesson_id TEXT NOT NULL,
			PRIMARY KEY (user_id, lesson_id),
			FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			user_id INTEGER PRIMARY KEY,
			box0_interval_ms INTEGER NOT NULL DEFAULT 5000,
			box1_interval_ms INTEGER NOT NULL DEFAULT 25000,
			box2_interval_ms INTEGER NOT NULL DEFAULT 120000,
			box3_interval_ms INTEGER NOT NULL DEFAULT 600000,
			box4_interval_ms INTEGER NOT NULL DEFAULT 3600000,
			enable_harmonic_ratio BOOLEAN NOT NULL DEFAULT 1,
			harmonic_ratio_threshold REAL NOT NULL DEFAULT 0.5,
			timeout_seconds INTEGER NOT NULL DEFAULT 0,
			silent_timeout BOOLEAN NOT NULL DEFAULT 0,
			locale TEXT NOT NULL DEFAULT 'nb',
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES profiles(id) ON DELETE CASCADE
		)`,
	}

	for i, query := range queries {
		utils.LogDB("Creating table %d/%d", i+1, len(queries))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_cards_user_id ON cards(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(user_id, next_review)",
	}
	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			utils.LogDB("Failed to create index (non-fatal): %v", err)
		}
	}

	return nil
}

// GetOrCreateProfile returns the profile id for a name, creating the
// profile on first use.
func (db *DB) GetOrCreateProfile(name string) (int, error) {
	var id int
	err := db.QueryRow("SELECT id FROM profiles WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		utils.LogError("Failed to look up profile %q: %v", name, err)
		return 0, err
	}

	result, err := db.Exec("INSERT INTO profiles (name) VALUES (?)", name)
	if err != nil {
		utils.LogError("Failed to create profile %q: %v", name, err)
		return 0, err
	}
	newID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	utils.LogDB("Created profile %q with id %d", name, newID)
	return int(newID), nil
}
