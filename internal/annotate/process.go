package annotate

import (
	"context"
)

// Process reads the document at path, annotates it in mode and hands the
// result to sink.
func Process(ctx context.Context, path string, e *Engine, mode Mode, sink Sink) error {
	doc, err := ReadDocument(path)
	if err != nil {
		return err
	}

	logger := e.logger.With("path", path)
	logger.Debug("processing document", "lines", len(doc.Lines), "mode", mode.String())

	lines, err := e.annotate(ctx, doc.Lines, mode, logger)
	if err != nil {
		return err
	}
	return sink.Emit(path, doc.Raw(), doc.WithLines(lines).Bytes())
}

// Check reports whether annotating the document at path in mode would
// change it. Nothing is written.
func Check(ctx context.Context, path string, e *Engine, mode Mode) (bool, error) {
	var sink CheckSink
	if err := Process(ctx, path, e, mode, &sink); err != nil {
		return false, err
	}
	return len(sink.Changed) > 0, nil
}
