// Package backup manages timestamped copies of the stride database.
package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// MaxBackups is the maximum number of backups to keep.
	MaxBackups = 14
	// BackupDirName is the name of the backup directory.
	BackupDirName = "backups"
	// BackupFilePrefix is the prefix for backup files.
	BackupFilePrefix = "stride-"
	// BackupFileSuffix is the suffix for backup files.
	BackupFileSuffix = ".db"

	timestampLayout = "20060102-150405"
)

// BackupInfo contains information about a backup file.
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager handles backup operations.
type Manager struct {
	dbPath    string
	backupDir string
}

// NewManager creates a new backup manager.
func NewManager(dbPath string) *Manager {
	configDir := filepath.Dir(dbPath)
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(configDir, BackupDirName),
	}
}

// GetBackupDir returns the backup directory path.
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup creates a new backup of the database and prunes old ones.
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// createBackup creates a new backup. skipRotation prevents recursive
// rotation during restore.
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	timestamp := time.Now().Format(timestampLayout)
	backupName := fmt.Sprintf("%s%s%s", BackupFilePrefix, timestamp, BackupFileSuffix)
	backupPath := filepath.Join(m.backupDir, backupName)

	// Same-second collisions get a numeric suffix.
	for counter := 1; ; counter++ {
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			break
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		backupName = fmt.Sprintf("%s%s-%d%s", BackupFilePrefix, timestamp, counter, BackupFileSuffix)
		backupPath = filepath.Join(m.backupDir, backupName)
	}

	if err := m.backupDatabase(backupPath); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to rotate old backups: %v\n", err)
		}
	}

	return backupPath, nil
}

// backupDatabase writes a clean copy of the database. VACUUM INTO is the
// safe way to snapshot a live SQLite file; a plain file copy is the
// fallback for non-SQLite (JSON) stores and older SQLite builds.
func (m *Manager) backupDatabase(destPath string) error {
	if !strings.HasSuffix(m.dbPath, ".db") {
		return copyFile(m.dbPath, destPath)
	}

	srcDB, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer srcDB.Close()

	var count int
	if err := srcDB.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := srcDB.Exec("VACUUM INTO ?", destPath); err != nil {
		return copyFile(m.dbPath, destPath)
	}

	return nil
}

// ListBackups returns all available backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, BackupFilePrefix) || !strings.HasSuffix(name, BackupFileSuffix) {
			continue
		}

		timestampStr := strings.TrimPrefix(name, BackupFilePrefix)
		timestampStr = strings.TrimSuffix(timestampStr, BackupFileSuffix)
		// Strip a collision counter suffix if present.
		if parts := strings.Split(timestampStr, "-"); len(parts) == 3 {
			timestampStr = strings.Join(parts[:2], "-")
		}

		timestamp, err := time.Parse(timestampLayout, timestampStr)
		if err != nil {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      path,
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// rotateBackups removes old backups beyond the retention limit.
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}

	return nil
}

// RestoreBackup replaces the database with a backup file, snapshotting the
// current database first.
func (m *Manager) RestoreBackup(backupPath string) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	if err := m.verifyBackup(backupPath); err != nil {
		return fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		currentBackup, err := m.createBackup(true)
		if err != nil {
			return fmt.Errorf("failed to backup current database before restore: %w", err)
		}
		fmt.Printf("Created backup of current database: %s\n", filepath.Base(currentBackup))
	}

	// Copy to a temp file then atomically rename into place.
	tempPath := m.dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.dbPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to remove temporary file %s: %v\n", tempPath, removeErr)
		}
		return fmt.Errorf("failed to restore database: %w", err)
	}

	return nil
}

// verifyBackup checks that a backup file is a readable SQLite database.
func (m *Manager) verifyBackup(path string) error {
	if !strings.HasSuffix(path, ".db") {
		return nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
