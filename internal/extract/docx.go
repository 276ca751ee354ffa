package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// DOCX extracts body paragraphs of a Word document as a single page.
type DOCX struct{}

// Pages yields one page numbered 1 holding every body paragraph joined by
// newlines.
func (DOCX) Pages(ctx context.Context, data []byte) iter.Seq2[Page, error] {
	return func(yield func(Page, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(Page{}, err)
			return
		}
		text, err := docxText(data)
		if err != nil {
			yield(Page{}, err)
			return
		}
		yield(Page{Number: 1, Label: "Document", Text: text}, nil)
	}
}

func docxText(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}
	defer func() { _ = r.Close() }()

	paras, err := paragraphs(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("reading docx body: %w", err)
	}
	return strings.Join(paras, "\n"), nil
}

// skipped elements hold text that is not part of a body paragraph's runs.
var skipped = map[string]bool{
	"pPr":         true,
	"rPr":         true,
	"txbxContent": true,
	"Fallback":    true,
}

// paragraphs returns the text of each paragraph directly under w:body.
// Paragraphs nested in tables or text boxes are not included.
func paragraphs(documentXML string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		paras     []string
		b         strings.Builder
		depth     int
		bodyDepth = -1
		paraDepth = -1
		skipDepth = -1
		inText    bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if skipDepth >= 0 {
				continue
			}
			inPara := paraDepth >= 0
			switch name := t.Name.Local; {
			case name == "body" && bodyDepth < 0:
				bodyDepth = depth
			case name == "p" && bodyDepth >= 0 && depth == bodyDepth+1:
				paraDepth = depth
				b.Reset()
			case !inPara:
			case skipped[name]:
				skipDepth = depth
			case name == "t":
				inText = true
			case name == "tab":
				b.WriteByte('\t')
			case name == "br" || name == "cr":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText && skipDepth < 0 {
				b.Write(t)
			}
		case xml.EndElement:
			switch {
			case depth == skipDepth:
				skipDepth = -1
			case depth == paraDepth:
				paras = append(paras, b.String())
				paraDepth = -1
			case t.Name.Local == "t":
				inText = false
			}
			depth--
		}
	}
	return paras, nil
}
