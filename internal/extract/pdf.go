package extract

import (
	"bytes"
	"context"
	"fmt"
	"iter"

	"github.com/ledongthuc/pdf"
)

// PDF extracts the plain text of each PDF page.
type PDF struct{}

// Pages yields one page per PDF page that has text.
func (PDF) Pages(ctx context.Context, data []byte) iter.Seq2[Page, error] {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fail(fmt.Errorf("opening pdf: %w", err))
	}

	return func(yield func(Page, error) bool) {
		total := reader.NumPage()
		if total == 0 {
			yield(Page{}, ErrNoPages)
			return
		}

		for num := 1; num <= total; num++ {
			if err := ctx.Err(); err != nil {
				yield(Page{}, err)
				return
			}

			page := reader.Page(num)
			if page.V.IsNull() {
				continue
			}
			text, err := page.GetPlainText(nil)
			if err != nil {
				yield(Page{}, fmt.Errorf("extracting page %d: %w", num, err))
				return
			}
			if text == "" {
				continue
			}

			if !yield(Page{Number: num, Label: fmt.Sprintf("Page %d", num), Text: text}, nil) {
				return
			}
		}
	}
}
