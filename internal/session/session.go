// Package session drives the input surface: it validates user actions,
// runs them against the configured strategy and records every step in a
// state.Store.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"cardsmith/internal/domain"
	"cardsmith/internal/logger"
	"cardsmith/internal/state"

	"go.uber.org/zap"
)

// EmptyInputPrompt is shown when generation is requested without text.
const EmptyInputPrompt = "Provide text or upload a file."

// ErrEmptyInput is returned by Generate when there is nothing to send.
var ErrEmptyInput = errors.New(EmptyInputPrompt)

// ErrNoUploader is returned by Upload when the session has no upload path.
var ErrNoUploader = errors.New("file upload is not configured")

// Session runs one action at a time. Starting a new action cancels the
// one in flight; its late result is discarded by the store.
type Session struct {
	store     *state.Store
	generator domain.CardGenerator
	uploader  domain.Uploader

	mu      sync.Mutex
	current state.Token
	cancel  context.CancelFunc
}

// New creates a session; uploader may be nil.
func New(generator domain.CardGenerator, uploader domain.Uploader) *Session {
	return &Session{
		store:     state.NewStore(state.State{}),
		generator: generator,
		uploader:  uploader,
	}
}

func (s *Session) Store() *state.Store {
	return s.store
}

func (s *Session) State() state.State {
	return s.store.State()
}

func (s *Session) SetText(text string) {
	s.store.Dispatch(state.TextChanged{Text: text})
}

func (s *Session) DismissPrompt() {
	s.store.Dispatch(state.PromptDismissed{})
}

// Generate turns the current input text into cards. Blank input raises
// the validation prompt without calling the generator.
func (s *Session) Generate(ctx context.Context) error {
	text := s.store.State().InputText
	if strings.TrimSpace(text) == "" {
		s.store.Dispatch(state.ValidationFailed{Message: EmptyInputPrompt})
		return ErrEmptyInput
	}

	ctx, token := s.begin(ctx)
	defer s.end(token)

	s.store.Dispatch(state.GenerateStarted{Token: token})
	cards, err := s.generator.Generate(ctx, text)
	if err != nil {
		logger.Get().Error("Flashcard generation failed",
			zap.String("strategy", s.generator.Name()),
			zap.Uint64("token", uint64(token)),
			zap.Error(err))
		s.store.Dispatch(state.GenerateFailed{Token: token, Err: DisplayMessage(err)})
		return err
	}
	s.store.Dispatch(state.GenerateSucceeded{Token: token, Cards: cards})
	return nil
}

// Upload hands the selected file to the uploader.
func (s *Session) Upload(ctx context.Context, fileName string, r io.Reader) error {
	if s.uploader == nil {
		return ErrNoUploader
	}

	ctx, token := s.begin(ctx)
	defer s.end(token)

	s.store.Dispatch(state.UploadStarted{Token: token, FileName: fileName})
	res, err := s.uploader.Upload(ctx, fileName, r)
	if err != nil {
		logger.Get().Error("File upload failed",
			zap.String("file", fileName),
			zap.Uint64("token", uint64(token)),
			zap.Error(err))
		s.store.Dispatch(state.UploadFailed{Token: token, Err: DisplayMessage(err)})
		return err
	}
	s.store.Dispatch(state.UploadSucceeded{Token: token, Result: *res})
	return nil
}

// begin supersedes the action in flight, if any.
func (s *Session) begin(parent context.Context) (context.Context, state.Token) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	token := s.store.NextToken()
	if s.cancel != nil {
		s.cancel()
	}
	s.current = token
	s.cancel = cancel
	s.mu.Unlock()

	return ctx, token
}

func (s *Session) end(token state.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == token && s.cancel != nil {
		s.cancel()
		s.cancel = nil
		s.current = 0
	}
}

// DisplayMessage is the text shown in the error banner. Extraction errors
// keep their cause, which names the page or file that could not be read.
func DisplayMessage(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code == domain.CodeExtractionFailed {
			return domainErr.Error()
		}
		return domainErr.Message
	}
	return err.Error()
}
