package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperforge/internal/render"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.docx>",
	Short: "Print the paragraphs of a rendered document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if headingsOnly, _ := cmd.Flags().GetBool("headings"); headingsOnly {
			headings, err := render.Headings(args[0])
			if err != nil {
				return err
			}
			for _, h := range headings {
				fmt.Fprintln(os.Stdout, h)
			}
			return nil
		}

		paras, err := render.ReadDocument(args[0])
		if err != nil {
			return err
		}
		showStyle, _ := cmd.Flags().GetBool("styles")
		for _, p := range paras {
			if p.Text == "" {
				continue
			}
			if showStyle {
				fmt.Fprintf(os.Stdout, "[%s] %s\n", p.Style, p.Text)
				continue
			}
			fmt.Fprintln(os.Stdout, p.Text)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().Bool("headings", false, "print only section headings")
	inspectCmd.Flags().Bool("styles", false, "prefix each paragraph with its style")
	rootCmd.AddCommand(inspectCmd)
}
