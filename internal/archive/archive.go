// Package archive reads and writes mbox archives one message at a time.
//
// Messages are framed on "From " lines and copied byte for byte: line
// endings, escaped ">From " body lines and the original separator line are
// all kept as they appear in the source.
package archive

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

var (
	// ErrNotFound is returned when a source archive cannot be opened.
	ErrNotFound = errors.New("archive not found")
	// ErrMalformed is returned when the mbox framing cannot be read.
	ErrMalformed = errors.New("malformed archive")
)

// DefaultSender is used on the separator line when a message names no sender.
const DefaultSender = "MAILER-DAEMON"

var separator = []byte("From ")

// Message is one email from an archive.
type Message struct {
	// Envelope is the "From " separator line, including its line ending.
	Envelope []byte
	// Raw holds the message bytes exactly as stored, without the separator
	// line and without the blank line that precedes the next separator.
	Raw []byte
}

// Size returns the serialized length of the message in bytes.
func (m *Message) Size() int64 {
	return int64(len(m.Raw))
}

// NewMessage wraps raw message bytes and derives the separator line from
// its headers.
func NewMessage(raw []byte) *Message {
	return &Message{Envelope: envelopeLine(raw), Raw: raw}
}

// envelopeLine builds a separator line for a message that has none. Messages
// whose headers cannot be parsed still get a stable line so reruns produce
// the same bytes.
func envelopeLine(raw []byte) []byte {
	from, date := DefaultSender, time.Unix(0, 0).UTC()

	th, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err == nil {
		h := mail.Header{}
		h.Header.Header = th

		if rp := h.Get("Return-Path"); rp != "" {
			if addrs, err := mail.ParseAddressList(rp); err == nil && len(addrs) > 0 && addrs[0].Address != "" {
				from = addrs[0].Address
			}
		} else if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 && addrs[0].Address != "" {
			from = addrs[0].Address
		}

		if t, err := h.Date(); err == nil && !t.IsZero() {
			date = t.UTC()
		}
	}

	return []byte(fmt.Sprintf("From %s %s%s", from, date.Format(time.ANSIC), lineEnding(raw)))
}

// lineEnding reports the line terminator used by b, "\r\n" or "\n".
func lineEnding(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i > 0 && b[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

func isBlank(line []byte) bool {
	return len(line) == 1 && line[0] == '\n' || len(line) == 2 && line[0] == '\r' && line[1] == '\n'
}

// Reader reads messages from an mbox archive.
type Reader struct {
	br     *bufio.Reader
	closer io.Closer
	next   []byte // separator line of the message Next returns
	eof    bool
}

// Open opens the archive at path for sequential reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	r := NewReader(f)
	r.closer = f
	return r, nil
}

// NewReader reads an archive from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// readLine returns the next line including its terminator. The last line of
// the input may lack one.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadBytes('\n')
	if err == io.EOF {
		r.eof = true
		return line, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return line, nil
}

// Next returns the next message, or io.EOF once the archive is exhausted.
//
// Every line starting with "From " opens a new message. A single blank line
// right before a separator, or at the end of the input, belongs to the
// framing and is not part of the message.
func (r *Reader) Next() (*Message, error) {
	// Leading blank lines are skipped; anything else before the first
	// separator means the input is not an mbox archive.
	for r.next == nil {
		if r.eof {
			return nil, io.EOF
		}
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		switch {
		case len(line) == 0 || isBlank(line):
		case bytes.HasPrefix(line, separator):
			r.next = line
		default:
			return nil, fmt.Errorf("%w: expected a From line, got %q", ErrMalformed, truncate(line))
		}
	}

	msg := &Message{Envelope: r.next}
	r.next = nil

	var blank []byte
	for !r.eof {
		line, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}
		if bytes.HasPrefix(line, separator) {
			r.next = line
			break
		}
		msg.Raw = append(msg.Raw, blank...)
		blank = nil
		if isBlank(line) {
			blank = line
			continue
		}
		msg.Raw = append(msg.Raw, line...)
	}
	return msg, nil
}

func truncate(line []byte) []byte {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) > 40 {
		return line[:40]
	}
	return line
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

// Writer appends messages to an mbox archive.
type Writer struct {
	bw     *bufio.Writer
	closer io.Closer
	count  int
	bytes  int64
	closed bool
}

// Create creates or truncates the archive at path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// NewWriter writes an archive to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, 64*1024)}
}

// Append writes the separator line, the message bytes unchanged and one
// blank line. Reading the result back yields msg.Raw exactly, unless Raw
// lacks a final line terminator, in which case one is added.
func (w *Writer) Append(msg *Message) error {
	if w.closed {
		return errors.New("archive: append to closed writer")
	}

	env := msg.Envelope
	if len(env) == 0 {
		env = envelopeLine(msg.Raw)
	}
	eol := lineEnding(env)
	if len(msg.Raw) > 0 {
		eol = lineEnding(msg.Raw)
	}

	if _, err := w.bw.Write(env); err != nil {
		return err
	}
	if env[len(env)-1] != '\n' {
		if _, err := w.bw.WriteString(eol); err != nil {
			return err
		}
	}
	if _, err := w.bw.Write(msg.Raw); err != nil {
		return err
	}
	if len(msg.Raw) > 0 && msg.Raw[len(msg.Raw)-1] != '\n' {
		if _, err := w.bw.WriteString(eol); err != nil {
			return err
		}
	}
	if _, err := w.bw.WriteString(eol); err != nil {
		return err
	}

	w.count++
	w.bytes += msg.Size()
	return nil
}

// Count returns the number of messages appended so far.
func (w *Writer) Count() int {
	return w.count
}

// Bytes returns the accumulated size of the appended messages.
func (w *Writer) Bytes() int64 {
	return w.bytes
}

// Close flushes the archive and closes the underlying file. Calling Close
// more than once is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
