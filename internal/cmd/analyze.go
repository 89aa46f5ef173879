package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aaronlippold/mbox-split/internal/analyzer"
	"github.com/aaronlippold/mbox-split/internal/split"
)

// AnalyzeResult holds analysis results for JSON output.
type AnalyzeResult struct {
	File     string        `json:"file" yaml:"file"`
	Messages int           `json:"messages" yaml:"messages"`
	Bytes    int64         `json:"bytes" yaml:"bytes"`
	Largest  int64         `json:"largest" yaml:"largest"`
	Smallest int64         `json:"smallest" yaml:"smallest"`
	Average  float64       `json:"average" yaml:"average"`
	Policy   *split.Policy `json:"policy,omitempty" yaml:"policy,omitempty"`
	Parts    int           `json:"parts,omitempty" yaml:"parts,omitempty"`
}

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Show message statistics for an mbox archive",
		Long: `Scan an mbox archive and report its message count and sizes.
With --max-messages or --max-size, also report how many files a split
would produce.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}
	bindPolicyFlags(cmd)
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ui := NewUI(cmd.OutOrStdout(), IsStructuredOutput())

	var policy *split.Policy
	if cfg.MaxMessages != 0 || cfg.MaxSizeMB != 0 {
		p, err := split.ResolvePolicy(cfg.MaxMessages, cfg.MaxSizeMB)
		if err != nil {
			return err
		}
		policy = &p
	}
	cmd.SilenceUsage = true

	filename := args[0]
	ui.StartSpinner(fmt.Sprintf("Scanning %s...", filepath.Base(filename)))

	info, err := analyzer.ScanArchive(filename)
	if err != nil {
		ui.StopSpinnerMsg(false, "Scan failed")
		return fmt.Errorf("scanning archive: %w", err)
	}
	ui.StopSpinnerMsg(true, "Scan complete")

	result := AnalyzeResult{
		File:     filepath.Base(filename),
		Messages: info.Messages,
		Bytes:    info.Bytes,
		Largest:  info.Largest,
		Smallest: info.Smallest,
		Average:  info.Average,
	}
	if policy != nil {
		result.Policy = policy
		result.Parts = analyzer.EstimateParts(info, *policy)
	}

	if IsStructuredOutput() {
		return PrintOutput(cmd.OutOrStdout(), result)
	}

	ui.Header(fmt.Sprintf("📬 %s (%s)", result.File, humanize.IBytes(uint64(result.Bytes))))
	cmd.Printf("   Messages: %s\n", humanize.Comma(int64(result.Messages)))
	if result.Messages > 0 {
		cmd.Printf("   Largest:  %s\n", humanize.IBytes(uint64(result.Largest)))
		cmd.Printf("   Smallest: %s\n", humanize.IBytes(uint64(result.Smallest)))
		cmd.Printf("   Average:  %s\n", humanize.IBytes(uint64(result.Average)))
	} else {
		ui.Warning("Archive holds no messages")
	}

	if policy != nil {
		cmd.Println()
		ui.Info(fmt.Sprintf("Splitting %s would produce %d files", describePolicy(*policy), result.Parts))
	}

	if cfg.Verbose && result.Messages > 0 {
		cmd.Println("\n   Message sizes:")
		for i, size := range info.Sizes() {
			cmd.Printf("     • #%d %s\n", i+1, humanize.IBytes(uint64(size)))
		}
	}

	return nil
}
