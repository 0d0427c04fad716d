// Package export serializes a flashcard list into downloadable files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cardsmith/internal/domain"

	"gopkg.in/yaml.v3"
)

// Format is a supported export file format.
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	YAML Format = "yaml"
)

// Formats lists every supported format in display order.
var Formats = []Format{JSON, CSV, YAML}

// ParseFormat accepts a format name case-insensitively ("yml" is YAML).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Filename is the fixed download name for the format.
func (f Format) Filename() string {
	return "flashcards." + string(f)
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case CSV:
		return "text/csv"
	case YAML:
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}

// Write serializes cards to w in the given format.
func Write(w io.Writer, f Format, cards []domain.Flashcard) error {
	if cards == nil {
		cards = []domain.Flashcard{}
	}
	switch f {
	case JSON:
		return writeJSON(w, cards)
	case CSV:
		return writeCSV(w, cards)
	case YAML:
		return writeYAML(w, cards)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// Bytes is Write into a buffer.
func Bytes(f Format, cards []domain.Flashcard) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, cards); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DataURI renders cards as a data URI suitable for a download link.
func DataURI(f Format, cards []domain.Flashcard) (string, error) {
	data, err := Bytes(f, cards)
	if err != nil {
		return "", err
	}
	// Spaces must become %20, not '+'.
	return fmt.Sprintf("data:%s;charset=utf-8,%s", f.ContentType(), url.PathEscape(string(data))), nil
}

func writeJSON(w io.Writer, cards []domain.Flashcard) error {
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// writeCSV always quotes fields and doubles embedded quotes. Rows are
// separated by "\n" with no trailing newline; embedded newlines are kept
// as they are.
func writeCSV(w io.Writer, cards []domain.Flashcard) error {
	rows := make([]string, 0, len(cards)+1)
	rows = append(rows, "Question,Answer")
	for _, card := range cards {
		rows = append(rows, quote(card.Question)+","+quote(card.Answer))
	}
	_, err := io.WriteString(w, strings.Join(rows, "\n"))
	return err
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func writeYAML(w io.Writer, cards []domain.Flashcard) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cards); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}
