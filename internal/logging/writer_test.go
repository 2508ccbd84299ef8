package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriter_Write(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "logs")
	writer := NewWriter(baseDir)
	defer writer.Close()

	if _, err := writer.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	writer.Write([]byte("line 2\n"))

	logPath := writer.Path(time.Now())
	if filepath.Dir(logPath) != baseDir {
		t.Errorf("Log path %q should be under %q", logPath, baseDir)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != "line 1\nline 2\n" {
		t.Errorf("Content = %q", string(content))
	}
}

func TestWriter_Path(t *testing.T) {
	writer := NewWriter("/var/log/mrscope")

	got := writer.Path(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
	if got != "/var/log/mrscope/mrscope-2026-01-15.log" {
		t.Errorf("Path() = %q", got)
	}
}

func TestWriter_RotatesDaily(t *testing.T) {
	baseDir := t.TempDir()
	writer := NewWriter(baseDir)
	defer writer.Close()

	day := time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC)
	writer.now = func() time.Time { return day }
	writer.Write([]byte("before midnight\n"))

	day = day.Add(2 * time.Minute)
	writer.Write([]byte("after midnight\n"))

	first, _ := os.ReadFile(filepath.Join(baseDir, "mrscope-2026-01-15.log"))
	second, _ := os.ReadFile(filepath.Join(baseDir, "mrscope-2026-01-16.log"))
	if string(first) != "before midnight\n" || string(second) != "after midnight\n" {
		t.Errorf("files = %q / %q", first, second)
	}
}

func TestWriter_AppendsAfterReopen(t *testing.T) {
	baseDir := t.TempDir()

	writer := NewWriter(baseDir)
	writer.Write([]byte("first run\n"))
	writer.Close()

	writer = NewWriter(baseDir)
	writer.Write([]byte("second run\n"))
	writer.Close()

	content, _ := os.ReadFile(writer.Path(time.Now()))
	if string(content) != "first run\nsecond run\n" {
		t.Errorf("Content = %q, want both runs", string(content))
	}
}

func TestWriter_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	os.WriteFile(file, nil, 0644)

	if _, err := NewWriter(filepath.Join(file, "logs")).Write([]byte("x")); err == nil {
		t.Error("Write() should error when the directory cannot be created")
	}
}
