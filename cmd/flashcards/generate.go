package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cardsmith/internal/config"
	"cardsmith/internal/export"

	"github.com/spf13/cobra"
)

type generateOptions struct {
	text   string
	file   string
	format string
	outDir string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate flashcards from text or a file",
	Long: `Generate reads the input text (--text, or --text - for stdin) or a file
(--file), turns it into flashcards with the configured strategy and prints
them. A local PDF or TXT file is extracted first and its text is then
generated from; the remote backend returns cards for a file directly.`,
	Example: `  flashcards generate --text "Go is a statically typed language. It was designed at Google."
  flashcards generate --file notes.pdf --format csv
  flashcards generate --strategy remote --server http://localhost:5000 --file notes.pdf --out ./deck`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := generateOptions{}
		opts.text, _ = cmd.Flags().GetString("text")
		opts.file, _ = cmd.Flags().GetString("file")
		opts.format, _ = cmd.Flags().GetString("format")
		opts.outDir, _ = cmd.Flags().GetString("out")

		if opts.text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			opts.text = string(data)
		}
		return runGenerate(cmd.Context(), cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	generateCmd.Flags().String("text", "", "input text, or - to read stdin")
	generateCmd.Flags().String("file", "", "PDF or TXT file to generate from")
	generateCmd.Flags().String("format", "text", "output format: text, json, csv or yaml")
	generateCmd.Flags().String("out", "", "directory to write flashcards.json and flashcards.csv to")
	generateCmd.MarkFlagsMutuallyExclusive("text", "file")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(ctx context.Context, cfg *config.Config, opts generateOptions, stdout, stderr io.Writer) error {
	sess, remoteUpload, err := newSession(cfg)
	if err != nil {
		return err
	}

	var actionErr error
	switch {
	case opts.file == "":
		sess.SetText(opts.text)
		actionErr = sess.Generate(ctx)
	case remoteUpload:
		// The backend answers with the deck, possibly empty.
		actionErr = uploadFile(ctx, sess, opts.file)
	default:
		// A local upload only fills the input text; generate from it.
		if actionErr = uploadFile(ctx, sess, opts.file); actionErr == nil {
			actionErr = sess.Generate(ctx)
		}
	}

	if err := output(stdout, sess, opts.format); err != nil && actionErr == nil {
		actionErr = err
	}

	if cards := sess.State().Cards; opts.outDir != "" && len(cards) > 0 {
		formats := []export.Format{export.JSON, export.CSV}
		if f, err := export.ParseFormat(opts.format); err == nil && f == export.YAML {
			formats = append(formats, f)
		}
		written, err := writeExports(opts.outDir, cards, formats)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Wrote %s\n", strings.Join(written, ", "))
	}

	return actionErr
}
