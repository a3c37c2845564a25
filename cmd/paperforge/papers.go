// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperforge/internal/catalog"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "List and show previous runs from the catalog",
	Long: `Papers reads the run catalog in the output directory. Each generation run
is recorded with its request, outcome, and document path so earlier papers
can be found again.`,
}

var papersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.List(cmd.Context(), catalog.ListOptions{Status: status, Limit: limit})
		if err != nil {
			return err
		}

		if format, _ := cmd.Flags().GetString("export"); format != "" {
			return catalog.Export(os.Stdout, runs, format)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tPAGES\tTITLE / ERROR")
		for _, r := range runs {
			detail := r.Title
			if r.Status == catalog.StatusFailed {
				detail = fmt.Sprintf("%s: %s", r.FailedStage, r.Message)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Status, r.PageCount, detail)
		}
		return tw.Flush()
	},
}

var papersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCatalog()
		if err != nil {
			return err
		}
		defer store.Close()

		r, err := store.Get(cmd.Context(), args[0])
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("no run with id %s", args[0])
		}
		if err != nil {
			return err
		}

		fmt.Printf("ID:        %s\n", r.ID)
		fmt.Printf("Created:   %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Status:    %s\n", r.Status)
		fmt.Printf("Format:    %s, %d pages\n", r.Format, r.PageCount)
		fmt.Printf("Sections:  %s\n", strings.Join(r.Sections, ", "))
		fmt.Printf("Duration:  %s\n", r.Duration)
		if r.Title != "" {
			fmt.Printf("Title:     %s\n", r.Title)
		}
		if r.File != "" {
			fmt.Printf("File:      %s\n", r.File)
		}
		if r.URI != "" && r.URI != r.File {
			fmt.Printf("URI:       %s\n", r.URI)
		}
		if r.Status == catalog.StatusFailed {
			fmt.Printf("Failed at: %s\n", r.FailedStage)
			fmt.Printf("Message:   %s\n", r.Message)
		}
		return nil
	},
}

func openCatalog() (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.Catalog.Path); err != nil {
		return nil, fmt.Errorf("no run catalog at %s: run forge first", cfg.Catalog.Path)
	}
	return catalog.Open(cfg.Catalog.Path)
}

func init() {
	papersListCmd.Flags().String("status", "", "filter by status: success or failed")
	papersListCmd.Flags().Int("limit", 50, "maximum number of runs to list")
	papersListCmd.Flags().String("export", "", "print runs as json or yaml instead of a table")

	papersCmd.AddCommand(papersListCmd)
	papersCmd.AddCommand(papersShowCmd)
	rootCmd.AddCommand(papersCmd)
}
