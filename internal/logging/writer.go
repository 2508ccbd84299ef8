package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// FilePrefix starts the name of every log file the writer creates.
const FilePrefix = "mrscope-"

// Writer appends log output to one file per day under a base directory:
// baseDir/mrscope-YYYY-MM-DD.log. It is safe for concurrent use.
type Writer struct {
	baseDir string
	now     func() time.Time

	mu   sync.Mutex
	file *os.File
	day  string
}

// NewWriter creates a new Writer with the specified base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, now: time.Now}
}

// Path returns the file the writer appends to at time t.
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.baseDir, FilePrefix+t.Format("2006-01-02")+".log")
}

// Write appends p to the current day's file, switching files when the day changes.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if day := now.Format("2006-01-02"); w.file == nil || day != w.day {
		if err := w.open(now); err != nil {
			return 0, err
		}
		w.day = day
	}
	return w.file.Write(p)
}

func (w *Writer) open(t time.Time) error {
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return errors.Wrap(err, "creating log directory")
	}
	f, err := os.OpenFile(w.Path(t), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "opening log file")
	}
	if w.file != nil {
		w.file.Close()
	}
	w.file = f
	return nil
}

// Close closes the current file. A later Write reopens it.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
