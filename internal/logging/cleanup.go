package logging

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Cleaner handles cleanup of old log files based on a retention policy.
type Cleaner struct {
	baseDir       string
	retentionDays int
}

// NewCleaner creates a new Cleaner with the specified base directory and retention period.
func NewCleaner(baseDir string, retentionDays int) *Cleaner {
	return &Cleaner{baseDir: baseDir, retentionDays: retentionDays}
}

// Cleanup removes log files older than the retention period and cleans up empty
// directories. Files not created by Writer are left alone.
// Returns the number of files deleted and any error encountered.
func (c *Cleaner) Cleanup() (int, error) {
	if c.retentionDays <= 0 {
		return 0, nil
	}
	threshold := time.Now().AddDate(0, 0, -c.retentionDays)
	var deleted int

	err := filepath.WalkDir(c.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == c.baseDir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return nil // Skip errors
		}
		if d.IsDir() || !isLogFile(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
		return nil
	})

	c.cleanEmptyDirs()

	if err != nil {
		return deleted, errors.Wrap(err, "walking log directory")
	}
	return deleted, nil
}

func isLogFile(name string) bool {
	return strings.HasPrefix(name, FilePrefix) && strings.HasSuffix(name, ".log")
}

// cleanEmptyDirs removes empty directories within the base directory, deepest first.
func (c *Cleaner) cleanEmptyDirs() {
	var dirs []string
	filepath.WalkDir(c.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != c.baseDir {
			dirs = append(dirs, path)
		}
		return nil
	})
	// WalkDir visits parents before children.
	for i := len(dirs) - 1; i >= 0; i-- {
		if entries, err := os.ReadDir(dirs[i]); err == nil && len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}
}
