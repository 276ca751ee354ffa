package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/docguard/internal/extract"
	"github.com/fyrsmithlabs/docguard/internal/keywords"
	"github.com/fyrsmithlabs/docguard/internal/matcher"
	"github.com/fyrsmithlabs/docguard/internal/scan"
	"github.com/fyrsmithlabs/docguard/internal/secrets"
	"github.com/fyrsmithlabs/docguard/internal/snippet"
)

type scanOptions struct {
	keywordsPath  string
	workers       int
	contextWindow int
	scrub         bool
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <files...>",
		Short: "Scan local documents and print JSON results",
		Long: `Scan local PDF and DOCX documents against a keyword file and print one
JSON result per file.

The exit code is 0 when every file passes, 1 when any file fails and 2 when
any file could not be scanned.

Examples:
  # Scan two documents
  docguard scan --keywords keywords.json report.pdf memo.docx

  # Scan a directory listing in parallel
  docguard scan --workers 4 docs/*.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.keywordsPath, "keywords", "k", "keywords.json", "keyword file (.json, .yaml or .toml)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 1, "files scanned concurrently")
	cmd.Flags().IntVar(&opts.contextWindow, "context-window", snippet.DefaultWindow, "characters of context around each match")
	cmd.Flags().BoolVar(&opts.scrub, "scrub", false, "redact credentials found in context phrases")
	return cmd
}

func runScan(cmd *cobra.Command, opts *scanOptions, paths []string) error {
	if opts.workers < 1 {
		return fmt.Errorf("--workers must be >= 1, got %d", opts.workers)
	}
	if opts.contextWindow < 0 {
		return fmt.Errorf("--context-window cannot be negative, got %d", opts.contextWindow)
	}

	reg, report := keywords.LoadFile(opts.keywordsPath, nil)
	if problems := report.Problems(); problems != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", opts.keywordsPath, problems)
	}

	svcOpts := []scan.Option{
		scan.WithWorkers(opts.workers),
		scan.WithContextWindow(opts.contextWindow),
	}
	if opts.scrub {
		scrubber, err := secrets.New(secrets.DefaultConfig())
		if err != nil {
			return fmt.Errorf("failed to create secret scrubber: %w", err)
		}
		svcOpts = append(svcOpts, scan.WithScrubber(scrubber))
	}
	svc := scan.NewService(keywords.NewStore(reg), extract.NewRegistry(), svcOpts...)

	results := scanPaths(cmd.Context(), svc, paths)
	if err := writeResults(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	return resultsExit(results)
}

// batchScanner is the part of scan.Service used by the scan command.
type batchScanner interface {
	Scan(ctx context.Context, files []scan.File) []scan.FileResult
}

// scanPaths reads every path and scans the readable ones as one batch.
// Unreadable paths become error results at their own position.
func scanPaths(ctx context.Context, svc batchScanner, paths []string) []scan.FileResult {
	results := make([]scan.FileResult, len(paths))
	files := make([]scan.File, 0, len(paths))
	positions := make([]int, 0, len(paths))

	for i, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 -- paths come from the command line
		if err != nil {
			results[i] = scan.FileResult{
				Filename:       path,
				Status:         scan.StatusError,
				FailSummary:    []scan.FailSummary{},
				FoundInstances: []matcher.MatchInstance{},
				ErrorMessage:   scan.ErrorMessage(err),
			}
			continue
		}
		files = append(files, scan.File{Name: path, Data: data})
		positions = append(positions, i)
	}

	if len(files) > 0 {
		for j, res := range svc.Scan(ctx, files) {
			results[positions[j]] = res
		}
	}
	return results
}

func writeResults(w io.Writer, results []scan.FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// resultsExit maps a batch to its exit code. Errors outrank failures.
func resultsExit(results []scan.FileResult) error {
	code := 0
	for _, res := range results {
		switch res.Status {
		case scan.StatusError:
			code = exitError
		case scan.StatusFail:
			code = max(code, exitFail)
		}
	}
	if code == 0 {
		return nil
	}
	return &exitCodeError{code: code}
}
