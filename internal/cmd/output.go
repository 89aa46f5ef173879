package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/drewstinnett/gout/v2"
	"github.com/drewstinnett/gout/v2/formats"
	goutjson "github.com/drewstinnett/gout/v2/formats/json"
	"github.com/drewstinnett/gout/v2/formats/plain"
	"github.com/drewstinnett/gout/v2/formats/yaml"
	"github.com/spf13/cobra"
)

// formatJSONL streams one JSON document per item; gout has no such formatter.
const formatJSONL = "jsonl"

// formatters maps each document format to its gout formatter.
var formatters = map[string]func() formats.Formatter{
	"plain": func() formats.Formatter { return &plain.Formatter{} },
	"json":  func() formats.Formatter { return &goutjson.Formatter{} },
	"yaml":  func() formats.Formatter { return &yaml.Formatter{} },
}

// outputFormat is the value of the persistent --format flag.
var outputFormat = "plain"

// formatNames lists every accepted --format value.
func formatNames() []string {
	names := []string{formatJSONL}
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BindOutputFlags adds --format flag to a command.
// This should be called on the root command.
func BindOutputFlags(cmd *cobra.Command) {
	outputFormat = "plain"
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "plain", "Output format: plain, json, yaml, jsonl")
}

// checkFormat rejects a --format value no printer handles.
func checkFormat() error {
	if _, ok := formatters[outputFormat]; ok || outputFormat == formatJSONL {
		return nil
	}
	return fmt.Errorf("unknown output format %q (want one of %v)", outputFormat, formatNames())
}

// PrintOutput prints one result document in the configured format. In JSONL
// mode the document becomes a single line.
func PrintOutput(w io.Writer, data any) error {
	if outputFormat == formatJSONL {
		return newItemStream(w).Emit(data)
	}
	newFormatter, ok := formatters[outputFormat]
	if !ok {
		newFormatter = formatters["plain"]
	}
	g := gout.New(gout.WithWriter(w))
	g.SetFormatter(newFormatter())
	return g.Print(data)
}

// itemStream writes JSONL records as items become available.
type itemStream struct {
	enc *json.Encoder
	n   int
}

func newItemStream(w io.Writer) *itemStream {
	return &itemStream{enc: json.NewEncoder(w)}
}

// Emit writes v as one line.
func (s *itemStream) Emit(v any) error {
	if err := s.enc.Encode(v); err != nil {
		return fmt.Errorf("writing %s record %d: %w", formatJSONL, s.n+1, err)
	}
	s.n++
	return nil
}

// IsStructuredOutput returns true if the output format is structured (JSON, YAML, etc.)
func IsStructuredOutput() bool {
	return outputFormat != "plain"
}

// GetFormat returns the current output format.
func GetFormat() string {
	return outputFormat
}
