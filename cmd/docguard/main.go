// Package main implements the docguard CLI.
//
// docguard scans PDF and DOCX documents for configured keywords. It runs as
// an HTTP service (serve), scans local files directly (scan), or talks to a
// running server (check, health).
//
// Usage:
//
//	# Start the server with a config file
//	docguard serve --config docguard.yaml
//
//	# Scan local files against a keyword file
//	docguard scan --keywords keywords.json report.pdf memo.docx
//
//	# Send files to a running server
//	docguard check --server http://localhost:8000 report.pdf
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Exit codes reported by commands that evaluate documents.
const (
	exitFail  = 1
	exitError = 2
)

// exitCodeError carries a process exit code without printing an error message.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	os.Exit(execute(newRootCmd(), os.Stderr))
}

// execute runs the command tree and maps the result to an exit code.
func execute(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if err == nil {
		return 0
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docguard",
		Short: "Scan documents for configured keywords",
		Long: `docguard scans PDF and DOCX documents for configured keywords and
reports a pass, fail or error status per file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newScanCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newHealthCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "docguard by Fyrsmith Labs\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}
