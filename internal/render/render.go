// Package render turns front-end state into something to look at.
package render

import (
	"fmt"
	"io"
	"strings"

	"cardsmith/internal/domain"
	"cardsmith/internal/export"
	"cardsmith/internal/state"
)

const (
	Title = "Flashcard Generator"

	generateLabel   = "Generate Flashcards"
	processingLabel = "Processing..."
)

// ExportLink is a ready-made download for one format.
type ExportLink struct {
	Label    string
	Filename string
	Href     string
}

// View is everything a surface needs to draw one frame.
type View struct {
	Title            string
	InputText        string
	FileName         string
	Loading          bool
	ButtonLabel      string
	GenerateDisabled bool
	ErrorBanner      string
	Prompt           string
	ShowExport       bool
	Exports          []ExportLink
	Cards            []domain.Flashcard
}

// Build is a pure function of s. Export links and cards only appear when
// there are cards.
func Build(s state.State) View {
	v := View{
		Title:            Title,
		InputText:        s.InputText,
		FileName:         s.FileName,
		Loading:          s.Loading,
		ButtonLabel:      generateLabel,
		GenerateDisabled: s.Loading,
		ErrorBanner:      s.Error,
		Prompt:           s.Prompt,
	}
	if s.Loading {
		v.ButtonLabel = processingLabel
	}
	if len(s.Cards) == 0 {
		return v
	}

	v.ShowExport = true
	v.Cards = s.Cards
	for _, f := range []export.Format{export.JSON, export.CSV} {
		href, err := export.DataURI(f, s.Cards)
		if err != nil {
			continue
		}
		v.Exports = append(v.Exports, ExportLink{
			Label:    "Export as " + strings.ToUpper(string(f)),
			Filename: f.Filename(),
			Href:     href,
		})
	}
	return v
}

// Text draws v for a terminal.
func Text(w io.Writer, v View) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", v.Title, strings.Repeat("=", len(v.Title)))

	if v.FileName != "" {
		fmt.Fprintf(&b, "Selected: %s\n", v.FileName)
	}
	if v.Loading {
		fmt.Fprintf(&b, "%s\n", v.ButtonLabel)
	}
	if v.Prompt != "" {
		fmt.Fprintf(&b, "! %s\n", v.Prompt)
	}
	if v.ErrorBanner != "" {
		fmt.Fprintf(&b, "Error: %s\n", v.ErrorBanner)
	}
	if v.ShowExport {
		names := make([]string, 0, len(v.Exports))
		for _, e := range v.Exports {
			names = append(names, e.Filename)
		}
		fmt.Fprintf(&b, "Export: %s\n", strings.Join(names, ", "))
	}
	for i, card := range v.Cards {
		fmt.Fprintf(&b, "\n%d. Q: %s\n   A: %s\n", i+1, card.Question, card.Answer)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
