// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperforge/internal/pipeline"
	"github.com/pdiddy/paperforge/pkg/types"
)

var forgeCmd = &cobra.Command{
	Use:   "forge",
	Short: "Generate one paper from a project description",
	Long: `Forge validates the request, asks the configured model for every requested
section, and renders the answer into a DOCX file in the output directory.
Progress events go to stderr; the document path (or published URI) is
printed on stdout.

Example:
  paperforge forge --overview "A study of adaptive traffic signal control" \
    --pages 6 --sections Abstract,Introduction,Methodology,Results,Conclusion`,
	RunE: runForge,
}

func init() {
	addRequestFlags(forgeCmd)
	addRunFlags(forgeCmd)
	rootCmd.AddCommand(forgeCmd)
}

func runForge(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, runErr := a.pipeline.Run(cmd.Context(), req, a.sink)
	if err := a.finish(cmd); err != nil {
		logger.Warn(err.Error())
	}
	if runErr != nil {
		reportStageError(runErr)
		return runErr
	}

	fmt.Fprintln(os.Stdout, res.URI)
	for name, path := range res.Artifacts {
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, path)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

// reportStageError prints per-field validation problems and whether the
// request is worth resubmitting.
func reportStageError(err error) {
	var ve types.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}
	var se *pipeline.StageError
	if errors.As(err, &se) && se.Retryable {
		fmt.Fprintln(os.Stderr, "the request may succeed if resubmitted")
	}
}
