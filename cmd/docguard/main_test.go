package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docguard/internal/scan"
)

// writeDOCX writes a one-paragraph Word document to dir.
func writeDOCX(t *testing.T, dir, name, text string) string {
	t.Helper()

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			fmt.Sprintf(`<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, text) +
			`</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func writeKeywords(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "keywords.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// runCLI executes the command tree and returns stdout, stderr and exit code.
func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := execute(root, &stderr)
	return stdout.String(), stderr.String(), code
}

func decodeResults(t *testing.T, out string) []scan.FileResult {
	t.Helper()
	var results []scan.FileResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	return results
}

func TestScanCommand(t *testing.T) {
	dir := t.TempDir()
	kw := writeKeywords(t, dir, `{
		"Confidential": {"fail_if_found": true},
		"merger": {}
	}`)

	t.Run("pass", func(t *testing.T) {
		doc := writeDOCX(t, dir, "pass.docx", "We discussed the merger today.")

		stdout, _, code := runCLI(t, "scan", "--keywords", kw, doc)

		assert.Equal(t, 0, code)
		results := decodeResults(t, stdout)
		require.Len(t, results, 1)
		assert.Equal(t, scan.StatusPass, results[0].Status)
		require.Len(t, results[0].FoundInstances, 1)
		assert.Equal(t, "merger", results[0].FoundInstances[0].Label)
		assert.Empty(t, results[0].FailSummary)
	})

	t.Run("fail exits 1", func(t *testing.T) {
		doc := writeDOCX(t, dir, "fail.docx", "This memo is CONFIDENTIAL.")

		stdout, _, code := runCLI(t, "scan", "--keywords", kw, doc)

		assert.Equal(t, exitFail, code)
		results := decodeResults(t, stdout)
		require.Len(t, results, 1)
		assert.Equal(t, scan.StatusFail, results[0].Status)
		assert.Equal(t, []scan.FailSummary{{Keyword: "Confidential", Count: 1, Pages: []int{1}}}, results[0].FailSummary)
	})

	t.Run("error outranks fail", func(t *testing.T) {
		failing := writeDOCX(t, dir, "fail2.docx", "confidential")
		txt := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(txt, []byte("confidential"), 0o600))

		stdout, _, code := runCLI(t, "scan", "--keywords", kw, "--workers", "2", failing, txt)

		assert.Equal(t, exitError, code)
		results := decodeResults(t, stdout)
		require.Len(t, results, 2)
		assert.Equal(t, scan.StatusFail, results[0].Status)
		assert.Equal(t, scan.StatusError, results[1].Status)
		assert.Equal(t, scan.UnsupportedMessage, results[1].ErrorMessage)
	})

	t.Run("unreadable file", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.pdf")

		stdout, _, code := runCLI(t, "scan", "--keywords", kw, missing)

		assert.Equal(t, exitError, code)
		results := decodeResults(t, stdout)
		require.Len(t, results, 1)
		assert.Equal(t, missing, results[0].Filename)
		assert.Contains(t, results[0].ErrorMessage, "An unexpected error occurred:")
	})

	t.Run("missing keyword file scans with no keywords", func(t *testing.T) {
		doc := writeDOCX(t, dir, "any.docx", "confidential")

		stdout, stderr, code := runCLI(t, "scan", "--keywords", filepath.Join(dir, "nope.json"), doc)

		assert.Equal(t, 0, code)
		assert.Contains(t, stderr, "warning:")
		results := decodeResults(t, stdout)
		assert.Empty(t, results[0].FoundInstances)
	})

	t.Run("invalid workers", func(t *testing.T) {
		_, stderr, code := runCLI(t, "scan", "--workers", "0", "a.pdf")
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "--workers must be >= 1")
	})

	t.Run("requires files", func(t *testing.T) {
		_, _, code := runCLI(t, "scan")
		assert.Equal(t, 1, code)
	})
}

func TestCheckCommand(t *testing.T) {
	var gotFiles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/check-document", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		for _, fh := range r.MultipartForm.File["files"] {
			gotFiles = append(gotFiles, fh.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"filename":"a.pdf","status":"pass","fail_summary":[],"found_instances":[]},
			{"filename":"b.docx","status":"fail","fail_summary":[{"keyword":"x","count":1,"pages":[1]}],"found_instances":[]}
		]`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "b.docx")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o600))

	stdout, _, code := runCLI(t, "check", "--server", srv.URL, a, b)

	assert.Equal(t, exitFail, code)
	assert.Equal(t, []string{"a.pdf", "b.docx"}, gotFiles)
	results := decodeResults(t, stdout)
	require.Len(t, results, 2)
	assert.Equal(t, scan.StatusFail, results[1].Status)
}

func TestCheckCommand_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"files: no file was submitted"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.pdf")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	_, stderr, code := runCLI(t, "check", "--server", srv.URL, path)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "server returned status 400")
}

func TestHealthCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"ok","keywords":4}`)
	}))
	defer srv.Close()

	stdout, _, code := runCLI(t, "health", "--server", srv.URL+"/")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Server Status: ok")
	assert.Contains(t, stdout, "Keywords:      4")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, code := runCLI(t, "version")

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Version:    dev")
}

func TestResultsExit(t *testing.T) {
	tests := []struct {
		name     string
		statuses []scan.Status
		want     int
	}{
		{"empty", nil, 0},
		{"all pass", []scan.Status{scan.StatusPass, scan.StatusPass}, 0},
		{"one fail", []scan.Status{scan.StatusPass, scan.StatusFail}, exitFail},
		{"error first", []scan.Status{scan.StatusError, scan.StatusFail}, exitError},
		{"error last", []scan.Status{scan.StatusFail, scan.StatusError}, exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]scan.FileResult, 0, len(tt.statuses))
			for _, s := range tt.statuses {
				results = append(results, scan.FileResult{Status: s})
			}

			err := resultsExit(results)
			if tt.want == 0 {
				assert.NoError(t, err)
				return
			}
			var exitErr *exitCodeError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, tt.want, exitErr.code)
		})
	}
}

type recordingScanner struct {
	batches [][]scan.File
}

func (s *recordingScanner) Scan(_ context.Context, files []scan.File) []scan.FileResult {
	s.batches = append(s.batches, files)
	results := make([]scan.FileResult, len(files))
	for i, f := range files {
		results[i] = scan.FileResult{Filename: f.Name, Status: scan.StatusPass}
	}
	return results
}

func TestScanPaths_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.docx")
	second := filepath.Join(dir, "b.docx")
	missing := filepath.Join(dir, "gone.docx")
	require.NoError(t, os.WriteFile(first, []byte("a"), 0600))
	require.NoError(t, os.WriteFile(second, []byte("b"), 0600))

	svc := &recordingScanner{}
	results := scanPaths(context.Background(), svc, []string{first, missing, second})

	require.Len(t, svc.batches, 1)
	require.Len(t, svc.batches[0], 2)
	assert.Equal(t, first, svc.batches[0][0].Name)
	assert.Equal(t, second, svc.batches[0][1].Name)

	require.Len(t, results, 3)
	assert.Equal(t, scan.StatusPass, results[0].Status)
	assert.Equal(t, missing, results[1].Filename)
	assert.Equal(t, scan.StatusError, results[1].Status)
	assert.Contains(t, results[1].ErrorMessage, "An unexpected error occurred:")
	assert.Empty(t, results[1].FoundInstances)
	assert.Equal(t, second, results[2].Filename)
}

func TestScanPaths_NothingReadable(t *testing.T) {
	svc := &recordingScanner{}
	results := scanPaths(context.Background(), svc, []string{filepath.Join(t.TempDir(), "gone.pdf")})

	assert.Empty(t, svc.batches)
	require.Len(t, results, 1)
	assert.Equal(t, scan.StatusError, results[0].Status)
}
