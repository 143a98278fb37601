package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/julianstephens/stride/internal/models"
)

type Store struct {
	Version  int                          `json:"version"`
	Settings Settings                     `json:"settings"`
	Habits   map[string]models.Habit      `json:"habits"`
	Entries  map[string]models.HabitEntry `json:"entries"` // keyed habitID/day
}

type JSONStore struct {
	path  string
	store *Store
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func entryKey(habitID, day string) string {
	return habitID + "/" + day
}

func (s *JSONStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.store = &Store{
		Version: 1,
		Habits:  make(map[string]models.Habit),
		Entries: make(map[string]models.HabitEntry),
	}

	return s.save()
}

func (s *JSONStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'stride init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	s.store = &Store{}
	if err := json.Unmarshal(data, s.store); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	// Ensure maps are initialized
	if s.store.Habits == nil {
		s.store.Habits = make(map[string]models.Habit)
	}
	if s.store.Entries == nil {
		s.store.Entries = make(map[string]models.HabitEntry)
	}

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

// save writes the whole document through a temp file and rename so a crash
// mid-write never leaves a half-written store. This is the JSON store's
// commit boundary: every mutation lands fully or not at all.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to commit storage: %w", err)
	}

	return nil
}

func (s *JSONStore) GetSettings() (Settings, error) {
	if s.store == nil {
		return Settings{}, fmt.Errorf("storage not loaded")
	}
	return s.store.Settings, nil
}

func (s *JSONStore) SaveSettings(settings Settings) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Settings = settings
	return s.save()
}

func (s *JSONStore) AddHabit(habit models.Habit) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Habits[habit.ID] = habit
	return s.save()
}

func (s *JSONStore) GetHabit(id string) (models.Habit, error) {
	if s.store == nil {
		return models.Habit{}, fmt.Errorf("storage not loaded")
	}
	habit, ok := s.store.Habits[id]
	if !ok || habit.DeletedAt != nil {
		return models.Habit{}, fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}
	return habit, nil
}

func (s *JSONStore) GetAllHabits() ([]models.Habit, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	habits := make([]models.Habit, 0, len(s.store.Habits))
	for _, habit := range s.store.Habits {
		if habit.DeletedAt != nil {
			continue
		}
		habits = append(habits, habit)
	}
	sort.Slice(habits, func(i, j int) bool { return habits[i].Name < habits[j].Name })
	return habits, nil
}

func (s *JSONStore) UpdateHabit(habit models.Habit) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	if _, ok := s.store.Habits[habit.ID]; !ok {
		return fmt.Errorf("habit %s: %w", habit.ID, ErrNotFound)
	}
	s.store.Habits[habit.ID] = habit
	return s.save()
}

func (s *JSONStore) DeleteHabit(id string) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	habit, ok := s.store.Habits[id]
	if !ok || habit.DeletedAt != nil {
		return fmt.Errorf("habit %s: %w", id, ErrNotFound)
	}
	now := nowUTC()
	habit.DeletedAt = &now
	s.store.Habits[id] = habit
	return s.save()
}

func (s *JSONStore) UpsertEntry(entry models.HabitEntry) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Entries[entryKey(entry.HabitID, entry.Day)] = entry
	return s.save()
}

func (s *JSONStore) GetEntry(habitID, day string) (models.HabitEntry, error) {
	if s.store == nil {
		return models.HabitEntry{}, fmt.Errorf("storage not loaded")
	}
	entry, ok := s.store.Entries[entryKey(habitID, day)]
	if !ok {
		return models.HabitEntry{}, fmt.Errorf("entry %s/%s: %w", habitID, day, ErrNotFound)
	}
	return entry, nil
}

func (s *JSONStore) GetEntries(habitID string) ([]models.HabitEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	var entries []models.HabitEntry
	prefix := habitID + "/"
	for key, entry := range s.store.Entries {
		if strings.HasPrefix(key, prefix) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Day < entries[j].Day })
	return entries, nil
}

func (s *JSONStore) DeleteEntry(habitID, day string) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	key := entryKey(habitID, day)
	if _, ok := s.store.Entries[key]; !ok {
		return fmt.Errorf("entry %s/%s: %w", habitID, day, ErrNotFound)
	}
	delete(s.store.Entries, key)
	return s.save()
}

func (s *JSONStore) SaveHabitState(habit models.Habit, entries []models.HabitEntry) error {
	if s.store == nil {
		return fmt.Errorf("storage not loaded")
	}
	s.store.Habits[habit.ID] = habit
	for _, entry := range entries {
		s.store.Entries[entryKey(entry.HabitID, entry.Day)] = entry
	}
	return s.save()
}

// GetConfigPath returns the path to the underlying storage file.
//
// Concurrency note: a store is not safe for concurrent use by multiple
// goroutines without external synchronization, and running multiple stride
// processes against the same path is not supported.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
