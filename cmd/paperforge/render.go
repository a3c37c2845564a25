// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperforge/internal/paper"
	"github.com/pdiddy/paperforge/internal/preview"
	"github.com/pdiddy/paperforge/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <paper.yaml|paper.json>",
	Short: "Render an existing paper file to DOCX",
	Long: `Render lays out a paper that is already written: title, authors, abstract,
keywords, sections, and references. No model is called. The file name is
derived from the title unless --output is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := paper.Load(args[0])
		if err != nil {
			return err
		}
		if p.Authors == "" {
			p.Authors = cfg.Render.Authors
		}
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			p.OutputFile = out
		}
		for _, c := range paper.UnresolvedCitations(p) {
			logger.Sugar().Warnf("citation %s has no matching reference", c)
		}

		path, err := render.New(cfg.Render.OutputDir, logger).Render(p)
		if err != nil {
			return err
		}
		if withPreview, _ := cmd.Flags().GetBool("preview"); withPreview {
			html, err := preview.Write(p, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "preview: %s\n", html)
		}
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

func init() {
	renderCmd.Flags().String("output", "", "output file name inside the output directory (must end in .docx)")
	renderCmd.Flags().Bool("preview", false, "also write an HTML preview")
	rootCmd.AddCommand(renderCmd)
}
