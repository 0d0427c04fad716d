package extract

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"cardsmith/internal/domain"

	rpdf "rsc.io/pdf"
)

// PDF extracts text page by page. Glyphs that sit on the same baseline and
// touch each other form a run; runs are joined with spaces and pages with
// newlines. Pages whose font has no width table (standard-14 fonts without
// /Widths) carry no usable glyph positions, so their text is read from the
// content stream's show-text operators instead.
type PDF struct{}

func NewPDF() *PDF {
	return &PDF{}
}

// Extract fails as a whole if any page cannot be decoded.
func (p *PDF) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	doc, err := rpdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := doc.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := pageText(doc, i)
		if err != nil {
			return "", err
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

// pageText converts panics raised by the PDF decoder into errors.
func pageText(doc *rpdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to decode page %d: %v", num, rec)
		}
	}()

	page := doc.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("failed to decode page %d: page not found", num)
	}
	glyphs := page.Content().Text
	if unmeasured(glyphs) {
		return streamText(page.V.Key("Contents")), nil
	}
	return strings.Join(textRuns(glyphs), " "), nil
}

// unmeasured reports whether no glyph has a width. rsc.io/pdf then never
// advances the text position and drops spaces, so runs cannot be found.
func unmeasured(glyphs []rpdf.Text) bool {
	if len(glyphs) == 0 {
		return false
	}
	for _, g := range glyphs {
		if g.W != 0 {
			return false
		}
	}
	return true
}

// tjWordGap is the TJ adjustment, in thousandths of an em, treated as a space.
const tjWordGap = -250

// streamText collects the strings shown by Tj, ', " and TJ. Positioning
// operators and TJ adjustments wider than tjWordGap separate words.
func streamText(contents rpdf.Value) string {
	var b strings.Builder
	space := func() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
	}
	show := func(v rpdf.Value) {
		for _, c := range []byte(v.RawString()) {
			b.WriteRune(rune(c))
		}
	}

	do := func(stk *rpdf.Stack, op string) {
		switch op {
		case "Tj", "'", "\"":
			if op != "Tj" {
				space()
			}
			if stk.Len() > 0 {
				show(stk.Pop())
			}
		case "TJ":
			if stk.Len() == 0 {
				return
			}
			arr := stk.Pop()
			for i := 0; i < arr.Len(); i++ {
				elem := arr.Index(i)
				switch elem.Kind() {
				case rpdf.String:
					show(elem)
				case rpdf.Integer, rpdf.Real:
					if elem.Float64() <= tjWordGap {
						space()
					}
				}
			}
		case "Td", "TD", "T*", "Tm", "BT", "ET":
			space()
		}
		for stk.Len() > 0 {
			stk.Pop()
		}
	}

	if contents.Kind() == rpdf.Array {
		for i := 0; i < contents.Len(); i++ {
			rpdf.Interpret(contents.Index(i), do)
			space()
		}
	} else {
		rpdf.Interpret(contents, do)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// textRuns groups positioned glyphs into runs of adjacent text.
func textRuns(glyphs []rpdf.Text) []string {
	var (
		runs    []string
		current strings.Builder
		prev    *rpdf.Text
	)

	flush := func() {
		if current.Len() > 0 {
			runs = append(runs, current.String())
			current.Reset()
		}
	}

	for i := range glyphs {
		g := &glyphs[i]
		if strings.TrimSpace(g.S) == "" {
			flush()
			prev = nil
			continue
		}
		if prev != nil && !adjacent(prev, g) {
			flush()
		}
		current.WriteString(g.S)
		prev = g
	}
	flush()
	return runs
}

func adjacent(prev, next *rpdf.Text) bool {
	size := math.Max(prev.FontSize, 1)
	if math.Abs(prev.Y-next.Y) > size*0.5 {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap > -size && gap <= size*0.2
}

var _ domain.TextExtractor = (*PDF)(nil)
