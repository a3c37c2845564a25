// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperforge/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch <requests.yaml>",
	Short: "Generate many papers concurrently",
	Long: `Batch reads a YAML list of requests, or a mapping with defaults and
requests keys, and runs them concurrently. Concurrency and the minimum gap
between request starts come from batch.concurrency and batch.start_interval.
Each request succeeds or fails on its own; the command exits non-zero when
any request failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	addRunFlags(batchCmd)
	batchCmd.Flags().Int("concurrency", 0, "requests in flight (default from config, 2)")
	batchCmd.Flags().Duration("start-interval", 0, "minimum delay between request starts (default from config, 1s)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	reqs, err := batch.LoadRequests(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	bc := a.cfg.Batch
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		bc.Concurrency = n
	}
	if d, _ := cmd.Flags().GetDuration("start-interval"); d != 0 {
		bc.StartInterval = d
	}

	summary := batch.Run(cmd.Context(), a.pipeline, reqs, a.sink, batch.OptionsFrom(bc, logger))
	summary.Write(os.Stdout)
	if err := a.finish(cmd); err != nil {
		logger.Warn(err.Error())
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d request(s) failed", summary.Failed)
	}
	return nil
}
