// Package split rewrites one mbox archive as a sequence of smaller parts.
package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/aaronlippold/mbox-split/internal/archive"
)

// DefaultProgressEvery is how many messages pass between progress log lines.
const DefaultProgressEvery = 5000

// PartExt is the extension of every part file.
const PartExt = ".mbox"

var (
	// ErrSourceNotFound is returned when the source archive cannot be opened
	// or does not start like an mbox archive.
	ErrSourceNotFound = errors.New("source archive not found")
	// ErrOutputWrite is returned when a part cannot be created, written or closed.
	ErrOutputWrite = errors.New("writing split archive")
)

// Part describes one output archive.
type Part struct {
	Number   int    `json:"number" yaml:"number"`
	Path     string `json:"path" yaml:"path"`
	Messages int    `json:"messages" yaml:"messages"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
}

// Result summarizes a completed split.
type Result struct {
	Source   string `json:"source" yaml:"source"`
	Policy   Policy `json:"policy" yaml:"policy"`
	DryRun   bool   `json:"dry_run" yaml:"dry_run"`
	Messages int    `json:"messages" yaml:"messages"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Parts    []Part `json:"parts" yaml:"parts"`
}

// Splitter splits a source archive into parts named {Prefix}_{N}.mbox.
type Splitter struct {
	Policy    Policy // zero value means DefaultPolicy
	OutputDir string // empty means the current directory
	Prefix    string // empty means derived from the source name
	Sink      Sink   // nil means FileSink
	Logger    hclog.Logger

	// ProgressEvery sets the progress interval; zero means
	// DefaultProgressEvery and a negative value disables progress lines.
	ProgressEvery int
}

// DerivePrefix returns the base name of source without its extension.
func DerivePrefix(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PartName returns the path of part n.
func PartName(dir, prefix string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", prefix, n, PartExt))
}

// Split runs a Splitter with the given policy and default settings.
func Split(ctx context.Context, source, prefix string, policy Policy) (*Result, error) {
	s := &Splitter{Policy: policy, Prefix: prefix}
	return s.Run(ctx, source)
}

// Run reads source once and writes its messages, in order, to consecutive
// parts. A part is closed and the next one opened when the policy reports
// that the messages already in it reached the limit. An empty source yields a
// single empty part.
func (s *Splitter) Run(ctx context.Context, source string) (*Result, error) {
	policy := s.Policy
	if policy.IsZero() {
		policy = DefaultPolicy
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	log := s.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	sink := s.Sink
	if sink == nil {
		sink = FileSink{}
	}
	prefix := s.Prefix
	if prefix == "" {
		prefix = DerivePrefix(source)
	}
	every := s.ProgressEvery
	if every == 0 {
		every = DefaultProgressEvery
	}

	log.Info("opening source archive", "path", source)
	src, err := archive.Open(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceNotFound, err)
	}
	defer src.Close()

	log.Info("splitting archive", "policy", policy.String())

	res := &Result{Source: source, Policy: policy}
	_, res.DryRun = sink.(DiscardSink)

	var (
		out  PartWriter
		cur  Part
		next = 1
	)

	closePart := func() error {
		if out == nil {
			return nil
		}
		w := out
		out = nil
		if err := w.Close(); err != nil {
			return fmt.Errorf("%w: closing %s: %w", ErrOutputWrite, cur.Path, err)
		}
		res.Parts = append(res.Parts, cur)
		log.Info("closed split archive", "path", cur.Path, "messages", cur.Messages, "bytes", cur.Bytes)
		return nil
	}

	openPart := func() error {
		if err := closePart(); err != nil {
			return err
		}
		path := PartName(s.OutputDir, prefix, next)
		log.Info("creating split archive", "path", path, "part", next)
		w, err := sink.Create(path)
		if err != nil {
			return fmt.Errorf("%w: creating %s: %w", ErrOutputWrite, path, err)
		}
		out = w
		cur = Part{Number: next, Path: path}
		next++
		return nil
	}

	// abort closes the part being written so its file handle is released.
	// Its contents are left as they are.
	abort := func(err error) (*Result, error) {
		if out != nil {
			out.Close()
		}
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		msg, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A source that does not start like an mbox archive is treated
			// like a missing one: nothing has been written yet.
			if res.Messages == 0 && errors.Is(err, archive.ErrMalformed) {
				return abort(fmt.Errorf("%w: %s: %w", ErrSourceNotFound, source, err))
			}
			return abort(fmt.Errorf("reading %s after %d messages: %w", source, res.Messages, err))
		}

		if out == nil || policy.Reached(cur.Messages, cur.Bytes) {
			if err := openPart(); err != nil {
				return abort(err)
			}
		}

		if err := out.Append(msg); err != nil {
			return abort(fmt.Errorf("%w: appending to %s: %w", ErrOutputWrite, cur.Path, err))
		}
		cur.Messages++
		cur.Bytes += msg.Size()
		res.Messages++
		res.Bytes += msg.Size()

		if every > 0 && res.Messages%every == 0 {
			log.Info("processed messages", "count", res.Messages)
		}
	}

	if out == nil {
		if err := openPart(); err != nil {
			return abort(err)
		}
	}
	if err := closePart(); err != nil {
		return nil, err
	}

	log.Info("splitting complete", "parts", len(res.Parts), "messages", res.Messages, "bytes", res.Bytes)
	return res, nil
}
