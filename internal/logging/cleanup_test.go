package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeAged creates a file whose modification time lies days in the past.
func writeAged(t *testing.T, path string, days int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("log"), 0644); err != nil {
		t.Fatal(err)
	}
	when := time.Now().AddDate(0, 0, -days)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCleanup_Retention(t *testing.T) {
	tests := []struct {
		name          string
		retentionDays int
		ageDays       int
		wantDeleted   int
	}{
		{"older than retention", 7, 10, 1},
		{"within retention", 30, 10, 0},
		{"retention disabled", 0, 400, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseDir := t.TempDir()
			file := filepath.Join(baseDir, "mrscope-2025-01-01.log")
			writeAged(t, file, tt.ageDays)

			deleted, err := NewCleaner(baseDir, tt.retentionDays).Cleanup()
			if err != nil {
				t.Fatalf("Cleanup() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}
			if exists(file) == (tt.wantDeleted == 1) {
				t.Errorf("file exists = %v after cleanup", exists(file))
			}
		})
	}
}

func TestCleanup_OnlyOwnFiles(t *testing.T) {
	baseDir := t.TempDir()
	own := filepath.Join(baseDir, "mrscope-2020-01-01.log")
	foreign := filepath.Join(baseDir, "other-service.log")
	notes := filepath.Join(baseDir, "mrscope-notes.txt")
	writeAged(t, own, 60)
	writeAged(t, foreign, 60)
	writeAged(t, notes, 60)

	deleted, err := NewCleaner(baseDir, 30).Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if deleted != 1 || exists(own) {
		t.Errorf("deleted = %d, own log should be removed", deleted)
	}
	if !exists(foreign) || !exists(notes) {
		t.Error("files not written by the log writer should be kept")
	}
}

func TestCleanup_EmptyDirectories(t *testing.T) {
	baseDir := t.TempDir()
	nested := filepath.Join(baseDir, "archive", "2020")
	writeAged(t, filepath.Join(nested, "mrscope-2020-01-01.log"), 60)
	kept := filepath.Join(baseDir, "current")
	writeAged(t, filepath.Join(kept, "mrscope-today.log"), 0)

	if _, err := NewCleaner(baseDir, 30).Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	if exists(filepath.Join(baseDir, "archive")) {
		t.Error("nested empty directories should be deleted")
	}
	if !exists(kept) {
		t.Error("directory with a recent log should be kept")
	}
	if !exists(baseDir) {
		t.Error("base directory should never be deleted")
	}
}

func TestCleanup_NonexistentBaseDir(t *testing.T) {
	deleted, err := NewCleaner(filepath.Join(t.TempDir(), "missing"), 30).Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v, want nil", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestCleanup_EmptyBaseDir(t *testing.T) {
	deleted, err := NewCleaner(t.TempDir(), 30).Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}
