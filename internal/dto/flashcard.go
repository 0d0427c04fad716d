package dto

import "cardsmith/internal/domain"

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Text string `json:"text" example:"Photosynthesis converts light into chemical energy."`
}

// FlashcardsResponse is returned by the generate and upload endpoints.
type FlashcardsResponse struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
}

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
}

// ErrorResponse is the body of every non-2xx API response. Clients only
// rely on Error.
type ErrorResponse struct {
	Error  string                   `json:"error"`
	Code   string                   `json:"code,omitempty"`
	Fields []domain.ValidationError `json:"fields,omitempty"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Strategy string `json:"strategy"`
	Cache    string `json:"cache"`
}
