package annotate

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"
)

// Sink receives every processed document.
type Sink interface {
	// Emit is called once per document with its original and rewritten
	// content.
	Emit(path string, before, after []byte) error
}

// ReplaceSink writes rewritten documents back to disk.
//
// Files are replaced atomically (temporary file and rename) and keep their
// permission bits. Documents whose content did not change are not written.
type ReplaceSink struct {
	Logger *slog.Logger
}

// Emit replaces the file at path with after.
func (s *ReplaceSink) Emit(path string, before, after []byte) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if bytes.Equal(before, after) {
		logger.Info("document unchanged", "path", path)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return &DocumentIOError{Path: path, Op: "write", Err: err}
	}
	if err := atomic.WriteFile(path, bytes.NewReader(after)); err != nil {
		return &DocumentIOError{Path: path, Op: "write", Err: err}
	}
	if err := os.Chmod(path, info.Mode().Perm()); err != nil {
		return &DocumentIOError{Path: path, Op: "write", Err: err}
	}
	logger.Info("document updated", "path", path, "bytes", len(after))
	return nil
}

// PreviewSink prints rewritten documents instead of saving them.
type PreviewSink struct {
	W io.Writer
}

// Emit writes a header line, the document, then an empty line.
func (s *PreviewSink) Emit(path string, _, after []byte) error {
	if _, err := fmt.Fprintf(s.W, "-------- %s\n", path); err != nil {
		return err
	}
	if _, err := s.W.Write(after); err != nil {
		return err
	}
	_, err := fmt.Fprintln(s.W)
	return err
}

// CheckSink records documents whose rendering differs from their content.
// Nothing is written.
type CheckSink struct {
	Changed []string
}

// Emit records path if before and after differ.
func (s *CheckSink) Emit(path string, before, after []byte) error {
	if !bytes.Equal(before, after) {
		s.Changed = append(s.Changed, path)
	}
	return nil
}
