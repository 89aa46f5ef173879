package split

import (
	"errors"
	"fmt"
)

// BytesPerMB converts the --max-size value to bytes.
const BytesPerMB = 1024 * 1024

var (
	// ErrInvalidPolicy is returned for a policy that cannot bound a part.
	ErrInvalidPolicy = errors.New("invalid split policy")
	// ErrNoCriteria is returned when neither a message count nor a size was given.
	ErrNoCriteria = fmt.Errorf("%w: specify either a maximum message count or a maximum size", ErrInvalidPolicy)
)

// Kind selects which threshold a Policy enforces.
type Kind string

const (
	KindCount Kind = "messages"
	KindSize  Kind = "size"
)

// Policy decides when a new part is started.
type Policy struct {
	Kind  Kind  `json:"kind" yaml:"kind"`
	Limit int64 `json:"limit" yaml:"limit"`
}

// DefaultPolicy applies when a Splitter is given the zero Policy.
var DefaultPolicy = ByCount(1000)

// ByCount starts a new part every n messages.
func ByCount(n int) Policy {
	return Policy{Kind: KindCount, Limit: int64(n)}
}

// BySize starts a new part once the current one holds at least n bytes.
func BySize(n int64) Policy {
	return Policy{Kind: KindSize, Limit: n}
}

// IsZero reports whether no policy was chosen.
func (p Policy) IsZero() bool {
	return p == Policy{}
}

// Validate checks that the policy can bound a part.
func (p Policy) Validate() error {
	switch p.Kind {
	case KindCount, KindSize:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPolicy, p.Kind)
	}
	if p.Limit < 1 {
		return fmt.Errorf("%w: %s limit must be at least 1, got %d", ErrInvalidPolicy, p.Kind, p.Limit)
	}
	return nil
}

// Reached reports whether a part holding count messages and size bytes is full.
// The check looks back: the message that crosses the limit stays in the part.
func (p Policy) Reached(count int, size int64) bool {
	switch p.Kind {
	case KindCount:
		return int64(count) >= p.Limit
	case KindSize:
		return size >= p.Limit
	}
	return false
}

func (p Policy) String() string {
	if p.Kind == KindSize {
		return fmt.Sprintf("every %d bytes", p.Limit)
	}
	return fmt.Sprintf("every %d messages", p.Limit)
}

// ResolvePolicy turns the command-line limits into one policy. A message count
// takes precedence over a size; size is given in megabytes.
func ResolvePolicy(maxMessages int, maxSizeMB int64) (Policy, error) {
	if maxMessages < 0 {
		return Policy{}, fmt.Errorf("%w: max messages must be positive, got %d", ErrInvalidPolicy, maxMessages)
	}
	if maxSizeMB < 0 {
		return Policy{}, fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidPolicy, maxSizeMB)
	}
	switch {
	case maxMessages > 0:
		return ByCount(maxMessages), nil
	case maxSizeMB > 0:
		return BySize(maxSizeMB * BytesPerMB), nil
	}
	return Policy{}, ErrNoCriteria
}
