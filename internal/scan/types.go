package scan

import (
	"fmt"

	"github.com/fyrsmithlabs/docguard/internal/matcher"
)

// Status is the outcome of scanning one file.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// UnsupportedMessage is the error message for unrecognized file types.
const UnsupportedMessage = "Unsupported file type."

// File is one uploaded document.
type File struct {
	Name string
	Data []byte
}

// FailSummary aggregates the matches of one fail-if-found keyword.
type FailSummary struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
	// Pages are unique and ascending.
	Pages []int `json:"pages"`
}

// FileResult is the scan result of one file.
type FileResult struct {
	Filename       string                  `json:"filename"`
	Status         Status                  `json:"status"`
	FailSummary    []FailSummary           `json:"fail_summary"`
	FoundInstances []matcher.MatchInstance `json:"found_instances"`
	ErrorMessage   string                  `json:"error_message,omitempty"`
}

// ErrorMessage formats a file-level failure for the result.
func ErrorMessage(err error) string {
	return fmt.Sprintf("An unexpected error occurred: %v", err)
}

func unsupported(filename string) FileResult {
	return FileResult{
		Filename:       filename,
		Status:         StatusError,
		FailSummary:    []FailSummary{},
		FoundInstances: []matcher.MatchInstance{},
		ErrorMessage:   UnsupportedMessage,
	}
}
