// Package analyzer provides mbox archive scanning and split projections.
package analyzer

import (
	"fmt"
	"io"

	"github.com/aaronlippold/mbox-split/internal/archive"
	"github.com/aaronlippold/mbox-split/internal/split"
)

// ArchiveInfo contains what a single pass over an archive learned about it.
type ArchiveInfo struct {
	Path     string  `json:"path" yaml:"path"`
	Messages int     `json:"messages" yaml:"messages"`
	Bytes    int64   `json:"bytes" yaml:"bytes"`
	Largest  int64   `json:"largest" yaml:"largest"`
	Smallest int64   `json:"smallest" yaml:"smallest"`
	Average  float64 `json:"average" yaml:"average"`

	sizes []int64 // per message, in archive order
}

// Sizes returns the size of every message in archive order.
func (a *ArchiveInfo) Sizes() []int64 {
	return a.sizes
}

// ScanArchive reads every message of the archive at path.
func ScanArchive(path string) (*ArchiveInfo, error) {
	r, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	info := &ArchiveInfo{Path: path}
	for {
		msg, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", info.Messages+1, err)
		}
		size := msg.Size()
		info.sizes = append(info.sizes, size)
		info.Messages++
		info.Bytes += size
		if size > info.Largest {
			info.Largest = size
		}
		if info.Messages == 1 || size < info.Smallest {
			info.Smallest = size
		}
	}
	if info.Messages > 0 {
		info.Average = float64(info.Bytes) / float64(info.Messages)
	}
	return info, nil
}

// EstimateParts returns how many parts splitting the scanned archive with
// policy would produce. It applies the same rollover rule as the splitter, so
// the projection is exact. An empty archive still yields one part.
func EstimateParts(info *ArchiveInfo, policy split.Policy) int {
	if policy.IsZero() {
		policy = split.DefaultPolicy
	}
	parts := 1
	var count int
	var size int64
	for i, s := range info.sizes {
		if i > 0 && policy.Reached(count, size) {
			parts++
			count, size = 0, 0
		}
		count++
		size += s
	}
	return parts
}
