package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Run only the upload step for a file",
	Long: `Upload hands a file to the configured upload path without generating.
Locally the extracted text is printed; against the remote backend the
returned flashcards are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, remoteUpload, err := newSession(cfg)
		if err != nil {
			return err
		}

		uploadErr := uploadFile(cmd.Context(), sess, args[0])
		if err := output(cmd.OutOrStdout(), sess, "text"); err != nil {
			return err
		}
		if s := sess.State(); uploadErr == nil && !remoteUpload {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", s.InputText)
		}
		return uploadErr
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
