package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/docguard/internal/scan"
)

const defaultServerURL = "http://localhost:8000"

// healthResponse matches internal/http HealthResponse.
type healthResponse struct {
	Status   string `json:"status"`
	Keywords int    `json:"keywords"`
}

func newCheckCmd() *cobra.Command {
	var (
		serverURL string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check <files...>",
		Short: "Send documents to a running docguard server",
		Long: `Upload documents to a docguard server and print its JSON results.

Exit codes follow the scan command.

Examples:
  # Check a document
  docguard check report.pdf

  # Use a different server
  docguard check --server http://docguard:8000 report.pdf memo.docx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			results, err := checkDocuments(ctx, serverURL, args)
			if err != nil {
				return err
			}
			if err := writeResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}
			return resultsExit(results)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "docguard server URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check docguard server health",
		Long: `Check the health status of a docguard server.

Examples:
  # Check health
  docguard health

  # Check health on a different server
  docguard health --server http://localhost:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			url := strings.TrimRight(serverURL, "/") + "/health"

			resp, err := client.Get(url)
			if err != nil {
				return fmt.Errorf("failed to connect to %s: %w", url, err)
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}

			var health healthResponse
			if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Server Status: %s\n", health.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "Keywords:      %d\n", health.Keywords)
			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "docguard server URL")
	return cmd
}

// checkDocuments uploads paths as one multipart request.
func checkDocuments(ctx context.Context, serverURL string, paths []string) ([]scan.FileResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
		part, err := mw.CreateFormFile("files", filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("failed to create form part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write form part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	url := strings.TrimRight(serverURL, "/") + "/api/v1/check-document"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var results []scan.FileResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return results, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
