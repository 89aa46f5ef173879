package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aaronlippold/mbox-split/internal/analyzer"
)

// ValidateResult holds validation results for JSON output.
type ValidateResult struct {
	Target    string          `json:"target" yaml:"target"`
	FileCount int             `json:"file_count" yaml:"file_count"`
	Messages  int             `json:"messages" yaml:"messages"`
	Valid     bool            `json:"valid" yaml:"valid"`
	Files     []ValidatedFile `json:"files,omitempty" yaml:"files,omitempty"`
}

// ValidatedFile describes a validated archive.
type ValidatedFile struct {
	Name     string `json:"name" yaml:"name"`
	Valid    bool   `json:"valid" yaml:"valid"`
	Messages int    `json:"messages" yaml:"messages"`
	Bytes    int64  `json:"bytes" yaml:"bytes"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// newValidateCmd creates the validate command.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check that mbox archives can be read",
		Long: `Read every message of an mbox archive, or of every *.mbox file in a
directory, and report the archives that cannot be read.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	ui := NewUI(cmd.OutOrStdout(), IsStructuredOutput())
	format := GetFormat()

	target := args[0]
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return fmt.Errorf("not found: %s", target)
	}
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	matches := []string{target}
	if info.IsDir() {
		matches, err = filepath.Glob(filepath.Join(target, "*.mbox"))
		if err != nil {
			return fmt.Errorf("finding archives: %w", err)
		}
	}

	result := ValidateResult{
		Target:    target,
		FileCount: len(matches),
		Valid:     true,
		Files:     []ValidatedFile{},
	}

	ui.Header(fmt.Sprintf("🔍 Validating mbox archives in %s", target))

	if len(matches) == 0 {
		if format == formatJSONL {
			return nil // No output for empty directory
		}
		if IsStructuredOutput() {
			return PrintOutput(cmd.OutOrStdout(), result)
		}
		ui.Info("No mbox archives found")
		return nil
	}

	if !IsStructuredOutput() {
		cmd.Println()
	}

	stream := newItemStream(cmd.OutOrStdout())

	for i, f := range matches {
		vf := ValidatedFile{Name: filepath.Base(f), Valid: true}
		scan, err := analyzer.ScanArchive(f)
		if err != nil {
			vf.Valid = false
			vf.Error = err.Error()
			result.Valid = false
		} else {
			vf.Messages = scan.Messages
			vf.Bytes = scan.Bytes
			result.Messages += scan.Messages
		}
		result.Files = append(result.Files, vf)

		// JSONL: output each file as it's processed (streaming)
		if format == formatJSONL {
			if err := stream.Emit(vf); err != nil {
				return err
			}
			continue
		}

		if IsStructuredOutput() {
			continue // Collect all, output at end
		}

		// Text mode
		if !vf.Valid || cfg.Verbose {
			ui.Item(i+1, len(matches), vf.Name, fmt.Sprintf("✓ %d messages, %s", vf.Messages, humanize.IBytes(uint64(vf.Bytes))), err)
		}
	}

	if format == formatJSONL {
		if !result.Valid {
			return fmt.Errorf("validation failed")
		}
		return nil
	}

	if IsStructuredOutput() {
		return PrintOutput(cmd.OutOrStdout(), result)
	}

	if !result.Valid {
		cmd.Println()
		ui.Error("Validation failed")
		return fmt.Errorf("validation failed")
	}

	cmd.Println()
	ui.Success(fmt.Sprintf("All %d archives are readable (%s messages)", len(matches), humanize.Comma(int64(result.Messages))))
	return nil
}
