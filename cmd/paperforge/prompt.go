package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperforge/internal/prompt"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt a request would send, without calling a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			reportStageError(err)
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		text, err := prompt.Build(req, cfg.Mode)
		if err != nil {
			return err
		}
		if withSystem, _ := cmd.Flags().GetBool("system"); withSystem {
			fmt.Fprintf(os.Stdout, "%s\n\n", prompt.System)
		}
		fmt.Fprintln(os.Stdout, text)
		return nil
	},
}

func init() {
	addRequestFlags(promptCmd)
	promptCmd.Flags().Bool("system", false, "also print the system message")
	rootCmd.AddCommand(promptCmd)
}
