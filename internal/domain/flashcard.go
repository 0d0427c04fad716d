package domain

import (
	"context"
	"io"
	"strings"
)

// Flashcard is a question/answer pair derived from source text.
type Flashcard struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// Valid reports whether both sides carry text.
func (f Flashcard) Valid() bool {
	return strings.TrimSpace(f.Question) != "" && strings.TrimSpace(f.Answer) != ""
}

// CardGenerator turns plain text into an ordered list of flashcards.
// Implementations are selected by configuration: a local sentence
// heuristic, an LLM, or the remote backend.
type CardGenerator interface {
	Generate(ctx context.Context, text string) ([]Flashcard, error)
	// Name identifies the strategy in logs and cache keys.
	Name() string
}

// TextExtractor converts an uploaded document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// UploadResult is what an upload produced. The remote backend returns
// cards directly; local extraction only returns the text, which then
// replaces the input buffer.
type UploadResult struct {
	Text  string
	Cards []Flashcard
}

// Uploader handles a selected file on behalf of the input surface.
type Uploader interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (*UploadResult, error)
}
