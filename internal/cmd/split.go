package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aaronlippold/mbox-split/internal/split"
)

func runSplit(cmd *cobra.Command, args []string) error {
	policy, err := split.ResolvePolicy(cfg.MaxMessages, cfg.MaxSizeMB)
	if err != nil {
		return err
	}
	// Past this point failures are not usage errors.
	cmd.SilenceUsage = true

	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.MaxMessages > 0 && cfg.MaxSizeMB > 0 {
		logger.Warn("both --max-messages and --max-size given, splitting by message count")
	}

	ui := NewUI(cmd.OutOrStdout(), IsStructuredOutput())
	format := GetFormat()
	source := args[0]

	s := &split.Splitter{
		Policy:    policy,
		OutputDir: cfg.OutputDir,
		Prefix:    cfg.Prefix,
		Logger:    logger,
	}
	if cfg.DryRun {
		s.Sink = split.DiscardSink{}
	}

	ui.Header(fmt.Sprintf("✂️  Splitting %s %s", filepath.Base(source), describePolicy(policy)))

	res, err := s.Run(cmd.Context(), source)
	if err != nil {
		ui.Error("Split failed")
		return err
	}

	if format == formatJSONL {
		stream := newItemStream(cmd.OutOrStdout())
		for _, p := range res.Parts {
			if err := stream.Emit(p); err != nil {
				return err
			}
		}
		return nil
	}

	if IsStructuredOutput() {
		return PrintOutput(cmd.OutOrStdout(), res)
	}

	cmd.Println()
	for _, p := range res.Parts {
		ui.Item(p.Number, len(res.Parts), p.Path, fmt.Sprintf("%d messages, %s", p.Messages, humanize.IBytes(uint64(p.Bytes))), nil)
	}
	cmd.Println()

	summary := fmt.Sprintf("Split %d messages (%s) into %d files", res.Messages, humanize.IBytes(uint64(res.Bytes)), len(res.Parts))
	if res.DryRun {
		ui.Info("Dry run - no files were written")
		ui.Info(summary)
		return nil
	}
	ui.Success(summary)
	return nil
}

// describePolicy renders a policy for people rather than logs.
func describePolicy(p split.Policy) string {
	if p.Kind == split.KindSize {
		return "every " + humanize.IBytes(uint64(p.Limit))
	}
	return fmt.Sprintf("every %s messages", humanize.Comma(p.Limit))
}
