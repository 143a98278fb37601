package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/stride/internal/models"
	_ "modernc.org/sqlite"
)

// SchemaVersion is bumped whenever the schema below changes shape. It is
// stored in the SQLite user_version pragma.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	quit_type TEXT NOT NULL DEFAULT '',
	goal_target REAL NOT NULL DEFAULT 0,
	goal_unit TEXT NOT NULL DEFAULT 'none',
	tracking_mode TEXT NOT NULL DEFAULT 'manual',
	metric_kind TEXT NOT NULL DEFAULT '',
	current_progress REAL NOT NULL DEFAULT 0,
	is_completed INTEGER NOT NULL DEFAULT 0,
	last_completion_date TEXT NOT NULL DEFAULT '',
	streak INTEGER NOT NULL DEFAULT 0,
	longest_streak INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT
);

CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	habit_id TEXT NOT NULL REFERENCES habits(id),
	day TEXT NOT NULL,
	progress REAL NOT NULL DEFAULT 0,
	target REAL NOT NULL DEFAULT 0,
	unit TEXT NOT NULL DEFAULT 'none',
	type TEXT NOT NULL,
	quit_type TEXT NOT NULL DEFAULT '',
	is_completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	UNIQUE(habit_id, day)
);

CREATE INDEX IF NOT EXISTS idx_entries_habit_day ON entries(habit_id, day);
`

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'stride init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return s.validateSchemaVersion()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) validateSchemaVersion() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than this build supports (%d); upgrade stride", version, SchemaVersion)
	}
	if version < SchemaVersion {
		// Forward-compatible: re-applying the idempotent schema brings an
		// older database up to date.
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("failed to upgrade schema: %w", err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetSettings() (Settings, error) {
	rows, err := s.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return Settings{}, err
	}
	defer rows.Close()

	settings := Settings{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, err
		}
		switch key {
		case "last_seen_day":
			settings.LastSeenDay = value
		case "date_override":
			settings.DateOverride = value
		}
	}

	return settings, rows.Err()
}

func (s *SQLiteStore) SaveSettings(settings Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err := stmt.Exec("last_seen_day", settings.LastSeenDay); err != nil {
		return err
	}
	if _, err := stmt.Exec("date_override", settings.DateOverride); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) AddHabit(habit models.Habit) error {
	return s.writeHabit(s.db, habit)
}

func (s *SQLiteStore) UpdateHabit(habit models.Habit) error {
	return s.writeHabit(s.db, habit)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) writeHabit(db execer, habit models.Habit) error {
	var deletedAt sql.NullString
	if habit.DeletedAt != nil {
		deletedAt = sql.NullString{String: habit.DeletedAt.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := db.Exec(`
		INSERT OR REPLACE INTO habits (
			id, name, type, quit_type, goal_target, goal_unit, tracking_mode, metric_kind,
			current_progress, is_completed, last_completion_date, streak, longest_streak,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.Name, habit.Type, habit.QuitType, habit.GoalTarget, habit.GoalUnit,
		habit.TrackingMode, habit.MetricKind, habit.CurrentProgress, habit.IsCompleted,
		habit.LastCompletionDate, habit.Streak, habit.LongestStreak,
		habit.CreatedAt.UTC().Format(time.RFC3339), habit.UpdatedAt.UTC().Format(time.RFC3339),
		deletedAt,
	)
	return err
}

const habitColumns = `id, name, type, quit_type, goal_target, goal_unit, tracking_mode, metric_kind,
	current_progress, is_completed, last_completion_date, streak, longest_streak,
	created_at, updated_at, deleted_at`

func scanHabit(row interface{ Scan(dest ...any) error }) (models.Habit, error) {
	var h models.Habit
	var createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&h.ID, &h.Name, &h.Type, &h.QuitType, &h.GoalTarget, &h.GoalUnit, &h.TrackingMode,
		&h.MetricKind, &h.CurrentProgress, &h.IsCompleted, &h.LastCompletionDate,
		&h.Streak, &h.LongestStreak, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return models.Habit{}, err
	}

	h.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	h.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if deletedAt.Valid {
		if t, err := time.Parse(time.RFC3339, deletedAt.String); err == nil {
			h.DeletedAt = &t
		}
	}

	return h, nil
}

func (s *SQLiteStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow("SELECT "+habitColumns+" FROM habits WHERE id = ? AND deleted_at IS NULL", id)
	habit, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return models.Habit{}, fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}
	return habit, err
}

func (s *SQLiteStore) GetAllHabits() ([]models.Habit, error) {
	rows, err := s.db.Query("SELECT " + habitColumns + " FROM habits WHERE deleted_at IS NULL ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}

	return habits, rows.Err()
}

func (s *SQLiteStore) DeleteHabit(id string) error {
	// Soft delete: set deleted_at instead of removing the record. Entries
	// stay untouched so a restore keeps history intact.
	var deletedAt sql.NullString
	err := s.db.QueryRow("SELECT deleted_at FROM habits WHERE id = ?", id).Scan(&deletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("habit %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to check habit existence: %w", err)
	}
	if deletedAt.Valid {
		return fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}

	now := nowUTC().Format(time.RFC3339)
	_, err = s.db.Exec("UPDATE habits SET deleted_at = ? WHERE id = ?", now, id)
	return err
}

func (s *SQLiteStore) UpsertEntry(entry models.HabitEntry) error {
	return s.writeEntry(s.db, entry)
}

func (s *SQLiteStore) writeEntry(db execer, entry models.HabitEntry) error {
	// OR REPLACE resolves conflicts on either the id key or the
	// UNIQUE(habit_id, day) constraint, so rewriting an entry and writing a
	// new entry for an already-recorded day both collapse to one row.
	_, err := db.Exec(`
		INSERT OR REPLACE INTO entries (id, habit_id, day, progress, target, unit, type, quit_type, is_completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.HabitID, entry.Day, entry.Progress, entry.Target, entry.Unit,
		entry.Type, entry.QuitType, entry.IsCompleted,
		entry.CreatedAt.UTC().Format(time.RFC3339), entry.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func scanEntry(row interface{ Scan(dest ...any) error }) (models.HabitEntry, error) {
	var e models.HabitEntry
	var createdAt, updatedAt string

	err := row.Scan(
		&e.ID, &e.HabitID, &e.Day, &e.Progress, &e.Target, &e.Unit, &e.Type, &e.QuitType,
		&e.IsCompleted, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.HabitEntry{}, err
	}

	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return e, nil
}

const entryColumns = "id, habit_id, day, progress, target, unit, type, quit_type, is_completed, created_at, updated_at"

func (s *SQLiteStore) GetEntry(habitID, day string) (models.HabitEntry, error) {
	row := s.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE habit_id = ? AND day = ?", habitID, day)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return models.HabitEntry{}, fmt.Errorf("entry %s/%s: %w", habitID, day, ErrNotFound)
	}
	return entry, err
}

func (s *SQLiteStore) GetEntries(habitID string) ([]models.HabitEntry, error) {
	rows, err := s.db.Query("SELECT "+entryColumns+" FROM entries WHERE habit_id = ? ORDER BY day", habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HabitEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *SQLiteStore) DeleteEntry(habitID, day string) error {
	res, err := s.db.Exec("DELETE FROM entries WHERE habit_id = ? AND day = ?", habitID, day)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s/%s: %w", habitID, day, ErrNotFound)
	}
	return nil
}

// SaveHabitState writes the habit and its touched entries inside one
// transaction so counters and history can never be persisted out of step.
func (s *SQLiteStore) SaveHabitState(habit models.Habit, entries []models.HabitEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.writeHabit(tx, habit); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := s.writeEntry(tx, entry); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}
