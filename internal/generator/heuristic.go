package generator

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"cardsmith/internal/domain"
)

const (
	// HeuristicQuestion is the fixed prompt used for every local card.
	HeuristicQuestion = "What does the following refer to?"

	DefaultMaxCards          = 5
	DefaultMinSentenceLength = 15
)

// Heuristic is the local, context-free generation strategy: each long
// enough sentence becomes the answer to a fixed question.
type Heuristic struct {
	maxCards  int
	minLength int
}

// NewHeuristic returns a Heuristic; non-positive limits fall back to the defaults.
func NewHeuristic(maxCards, minLength int) *Heuristic {
	if maxCards <= 0 {
		maxCards = DefaultMaxCards
	}
	if minLength < 0 {
		minLength = DefaultMinSentenceLength
	}
	return &Heuristic{maxCards: maxCards, minLength: minLength}
}

func (h *Heuristic) Name() string {
	return "local"
}

// Generate keeps the first maxCards sentences whose trimmed length exceeds
// minLength characters, in their original order.
func (h *Heuristic) Generate(ctx context.Context, text string) ([]domain.Flashcard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cards := make([]domain.Flashcard, 0, h.maxCards)
	for _, fragment := range SplitSentences(text) {
		answer := strings.TrimSpace(fragment)
		if utf8.RuneCountInString(answer) <= h.minLength {
			continue
		}
		cards = append(cards, domain.Flashcard{
			Question: HeuristicQuestion,
			Answer:   answer,
		})
		if len(cards) == h.maxCards {
			break
		}
	}
	return cards, nil
}

// SplitSentences breaks text after '.', '?' or '!' when the mark is
// followed by whitespace. The terminal mark stays with its sentence and
// the separating whitespace is dropped.
func SplitSentences(text string) []string {
	var (
		fragments []string
		start     int
	)

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) || i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		fragments = append(fragments, string(runes[start:i+1]))
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		start = j
		i = j - 1
	}
	if start < len(runes) {
		fragments = append(fragments, string(runes[start:]))
	}
	return fragments
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!'
}

var _ domain.CardGenerator = (*Heuristic)(nil)
