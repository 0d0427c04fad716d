package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cardsmith/internal/config"
	"cardsmith/internal/domain"
	"cardsmith/internal/export"
	"cardsmith/internal/extract"
	"cardsmith/internal/generator"
	"cardsmith/internal/render"
	"cardsmith/internal/session"
)

// newSession wires the configured strategy. The remote backend handles
// uploads itself and remoteUpload reports that; every other strategy
// extracts text locally.
func newSession(cfg *config.Config) (sess *session.Session, remoteUpload bool, err error) {
	gen, err := generator.New(cfg)
	if err != nil {
		return nil, false, err
	}

	if uploader, ok := gen.(domain.Uploader); ok {
		return session.New(gen, uploader), true, nil
	}
	registry := extract.NewRegistry(cfg.Client.AcceptedTypes)
	return session.New(gen, extract.NewLocalUploader(registry, int64(cfg.Server.MaxUploadBytes))), false, nil
}

// uploadFile runs the upload action for the file at path.
func uploadFile(ctx context.Context, sess *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return sess.Upload(ctx, filepath.Base(path), f)
}

// output prints the session state. "text" draws the terminal view; any
// export format writes the cards in that format.
func output(w io.Writer, sess *session.Session, format string) error {
	s := sess.State()
	if format == "" || format == "text" {
		return render.Text(w, render.Build(s))
	}

	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if s.Error != "" {
		return fmt.Errorf("%s", s.Error)
	}
	if err := export.Write(w, f, s.Cards); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// writeExports saves the cards under dir using the fixed export file names.
func writeExports(dir string, cards []domain.Flashcard, formats []export.Format) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	written := make([]string, 0, len(formats))
	for _, f := range formats {
		body, err := export.Bytes(f, cards)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, f.Filename())
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
