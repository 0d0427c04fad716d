package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"cardsmith/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Text reads plain UTF-8 files. Invalid byte sequences are replaced.
type Text struct{}

func NewText() *Text {
	return &Text{}
}

func (t *Text) Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "�"), nil
}

var _ domain.TextExtractor = (*Text)(nil)
