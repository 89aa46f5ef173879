package split

import (
	"github.com/aaronlippold/mbox-split/internal/archive"
)

// PartWriter receives the messages of one part.
type PartWriter interface {
	Append(msg *archive.Message) error
	Close() error
}

// Sink creates the part writers.
type Sink interface {
	Create(path string) (PartWriter, error)
}

// FileSink writes each part as an mbox file.
type FileSink struct{}

// Create creates or truncates the archive at path.
func (FileSink) Create(path string) (PartWriter, error) {
	w, err := archive.Create(path)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// DiscardSink drops every message. It is used to project parts without
// writing them.
type DiscardSink struct{}

// Create returns a writer that accepts and discards messages.
func (DiscardSink) Create(string) (PartWriter, error) {
	return discardWriter{}, nil
}

type discardWriter struct{}

func (discardWriter) Append(*archive.Message) error { return nil }
func (discardWriter) Close() error                  { return nil }
