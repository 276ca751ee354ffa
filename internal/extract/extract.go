// Package extract turns uploaded documents into page text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupported is returned for files with an unrecognized extension.
	ErrUnsupported = errors.New("unsupported file type")

	// ErrNoPages is returned for documents that contain no pages.
	ErrNoPages = errors.New("document has no pages")
)

// Page is the extracted text of one page.
type Page struct {
	// Number is the 1-based page number used for reporting.
	Number int
	Label  string
	Text   string
}

// PageSource extracts the pages of one document format.
type PageSource interface {
	// Pages yields pages in order. Pages without text are skipped. An error
	// ends the sequence; pages yielded before it remain valid.
	Pages(ctx context.Context, data []byte) iter.Seq2[Page, error]
}

// Registry maps file extensions to page sources.
type Registry struct {
	sources map[string]PageSource
}

// NewRegistry returns a registry with the PDF and DOCX sources registered.
func NewRegistry() *Registry {
	r := &Registry{sources: make(map[string]PageSource)}
	r.Register(".pdf", PDF{})
	r.Register(".docx", DOCX{})
	return r
}

// Register installs src for ext, replacing any previous source.
func (r *Registry) Register(ext string, src PageSource) {
	r.sources[normalizeExt(ext)] = src
}

// For returns the source for filename's extension, matched case-insensitively.
func (r *Registry) For(filename string) (PageSource, error) {
	ext := normalizeExt(filepath.Ext(filename))
	if src, ok := r.sources[ext]; ok && ext != "" {
		return src, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, filename)
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.sources))
	for ext := range r.sources {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// fail yields a single error.
func fail(err error) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		yield(Page{}, err)
	}
}
