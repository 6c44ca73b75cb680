package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/md-dataset/pkg/models"
	"github.com/Sriram-PR/md-dataset/pkg/process"
	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// RecordWriter writes dataset records as one chat line per record.
// It is not safe for concurrent use.
type RecordWriter struct {
	log  *logrus.Entry
	path string
	file *os.File // nil when wrapping a caller-supplied writer
	buf  *bufio.Writer

	written int
	skipped int
}

// OpenRecordWriter creates (or truncates) the dataset file at path,
// creating parent directories as needed.
func OpenRecordWriter(path string, log *logrus.Entry) (*RecordWriter, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create output directory '%s': %w", utils.ErrOutput, dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open output file '%s': %w", utils.ErrOutput, path, err)
	}
	log.Infof("Writing dataset to %s", path)

	return &RecordWriter{
		log:  log,
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

// NewRecordWriter wraps an arbitrary writer. Close only flushes it.
func NewRecordWriter(w io.Writer, log *logrus.Entry) *RecordWriter {
	return &RecordWriter{
		log:  log,
		path: "<stream>",
		buf:  bufio.NewWriter(w),
	}
}

// Path returns the destination path ("<stream>" for wrapped writers).
func (w *RecordWriter) Path() string {
	return w.path
}

// Write appends one record. Records whose completion is blank are skipped,
// so every line in the dataset carries a non-empty completion.
func (w *RecordWriter) Write(rec models.Record) error {
	if process.TrimText(rec.Completion) == "" {
		w.skipped++
		w.log.WithField("prompt", rec.Prompt).Debug("Skipping record with empty completion")
		return nil
	}

	if _, err := w.buf.Write(EncodeChatLine(rec)); err != nil {
		return fmt.Errorf("%w: write to '%s': %w", utils.ErrOutput, w.path, err)
	}
	w.written++
	return nil
}

// Flush pushes buffered lines to the underlying file.
func (w *RecordWriter) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("%w: flush '%s': %w", utils.ErrOutput, w.path, err)
	}
	return nil
}

// Written returns the number of lines written so far.
func (w *RecordWriter) Written() int {
	return w.written
}

// Skipped returns the number of records dropped for an empty completion.
func (w *RecordWriter) Skipped() int {
	return w.skipped
}

// Close flushes, syncs and closes the dataset file.
func (w *RecordWriter) Close() error {
	if err := w.Flush(); err != nil {
		if w.file != nil {
			w.file.Close()
			w.file = nil
		}
		return err
	}
	if w.file == nil {
		return nil
	}

	w.log.Debugf("Syncing and closing dataset file: %s", w.path)
	if err := w.file.Sync(); err != nil {
		w.log.Errorf("Error syncing dataset file '%s': %v", w.path, err)
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("%w: close '%s': %w", utils.ErrOutput, w.path, err)
	}
	return nil
}
