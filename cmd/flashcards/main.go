// Package main is the flashcards command line front end. It drives the
// same session, render and export packages as the web page, against a
// local strategy or the cardsmith backend.
package main

import (
	"fmt"
	"os"

	"cardsmith/internal/config"
	"cardsmith/internal/logger"

	"github.com/spf13/cobra"
)

// cfg is loaded once flags are parsed.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "flashcards",
	Short: "Turn text and documents into question/answer flashcards",
	Long: `flashcards generates study cards from pasted text, a text file or a PDF.

Cards are produced locally from sentences, by an LLM, or by a running
cardsmith backend (--strategy remote --server URL), and can be printed or
exported as JSON, CSV or YAML.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		overrides := map[string]interface{}{}
		if cmd.Flags().Changed("strategy") {
			strategy, _ := cmd.Flags().GetString("strategy")
			overrides["generation.strategy"] = strategy
		}
		if cmd.Flags().Changed("server") {
			server, _ := cmd.Flags().GetString("server")
			overrides["client.base_url"] = server
		}
		if cmd.Flags().Changed("log-level") {
			level, _ := cmd.Flags().GetString("log-level")
			overrides["logger.level"] = level
		}

		loaded, err := config.LoadConfigFile(path, overrides)
		if err != nil {
			return err
		}
		if err := logger.Initialize(loaded.Logger); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("strategy", "", "generation strategy: local, ollama, openai or remote")
	rootCmd.PersistentFlags().String("server", "", "backend base URL for the remote strategy")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
