// Package extract converts uploaded documents into plain text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cardsmith/internal/domain"
	"cardsmith/internal/logger"

	"go.uber.org/zap"
)

// Registry picks an extractor by file extension.
type Registry struct {
	extractors map[string]domain.TextExtractor
}

// NewRegistry registers the built-in extractors for the accepted extensions.
// An empty list accepts every extension with a built-in extractor.
func NewRegistry(accepted []string) *Registry {
	builtin := map[string]domain.TextExtractor{
		".pdf": NewPDF(),
		".txt": NewText(),
	}
	if len(accepted) == 0 {
		return &Registry{extractors: builtin}
	}

	extractors := make(map[string]domain.TextExtractor, len(accepted))
	for _, ext := range accepted {
		ext = strings.ToLower(ext)
		if e, ok := builtin[ext]; ok {
			extractors[ext] = e
		}
	}
	return &Registry{extractors: extractors}
}

// Supports reports whether fileName has an accepted extension.
func (r *Registry) Supports(fileName string) bool {
	_, ok := r.extractors[Ext(fileName)]
	return ok
}

// Extract returns an unsupported-file domain error for unknown extensions
// and an extraction domain error when decoding fails.
func (r *Registry) Extract(ctx context.Context, fileName string, src io.ReaderAt, size int64) (string, error) {
	ext := Ext(fileName)
	e, ok := r.extractors[ext]
	if !ok {
		return "", domain.NewUnsupportedFileError(ext)
	}

	text, err := e.Extract(ctx, src, size)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Get().Warn("Text extraction failed",
			zap.String("file", fileName),
			zap.Int64("size", size),
			zap.Error(err))
		return "", domain.NewExtractionError(err)
	}
	return text, nil
}

// Ext is the lower-cased extension including the dot.
func Ext(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

// LocalUploader is the client-side upload path: the file is read into
// memory and its text replaces the input buffer. No cards are produced.
type LocalUploader struct {
	registry *Registry
	maxBytes int64
}

func NewLocalUploader(registry *Registry, maxBytes int64) *LocalUploader {
	return &LocalUploader{registry: registry, maxBytes: maxBytes}
}

func (u *LocalUploader) Upload(ctx context.Context, fileName string, r io.Reader) (*domain.UploadResult, error) {
	if !u.registry.Supports(fileName) {
		return nil, domain.NewUnsupportedFileError(Ext(fileName))
	}

	src := r
	if u.maxBytes > 0 {
		src = io.LimitReader(r, u.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if u.maxBytes > 0 && int64(len(data)) > u.maxBytes {
		return nil, domain.NewFileTooLargeError(int64(len(data)), u.maxBytes)
	}

	text, err := u.registry.Extract(ctx, fileName, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &domain.UploadResult{Text: text}, nil
}

var _ domain.Uploader = (*LocalUploader)(nil)
