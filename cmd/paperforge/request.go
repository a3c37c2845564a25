// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperforge/pkg/types"
)

// addRequestFlags registers the flags that describe one paper request.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("request", "r", "", "request file (YAML or JSON)")
	cmd.Flags().String("overview", "", "project description (at least 30 characters)")
	cmd.Flags().String("format", types.FormatIEEE, "publication format")
	cmd.Flags().Int("pages", 6, "page count (4-20)")
	cmd.Flags().StringSlice("sections", nil, "ordered section names, comma-separated")
	cmd.Flags().String("authors", "", "author block; use \\n between lines")
}

// requestFromFlags reads --request when given and lets explicit flags
// override its fields.
func requestFromFlags(cmd *cobra.Command) (types.PaperRequest, error) {
	var req types.PaperRequest
	if path, _ := cmd.Flags().GetString("request"); path != "" {
		r, err := loadRequest(path)
		if err != nil {
			return req, err
		}
		req = r
	}

	f := cmd.Flags()
	if f.Changed("overview") || req.Overview == "" {
		req.Overview, _ = f.GetString("overview")
	}
	if f.Changed("format") || req.Format == "" {
		req.Format, _ = f.GetString("format")
	}
	if f.Changed("pages") || req.PageCount == 0 {
		req.PageCount, _ = f.GetInt("pages")
	}
	if f.Changed("sections") || len(req.Sections) == 0 {
		req.Sections, _ = f.GetStringSlice("sections")
	}
	if f.Changed("authors") {
		a, _ := f.GetString("authors")
		req.Authors = strings.ReplaceAll(a, `\n`, "\n")
	}
	return req, nil
}

// loadRequest reads a PaperRequest from JSON (by extension) or YAML.
func loadRequest(path string) (types.PaperRequest, error) {
	var req types.PaperRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("reading request file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &req)
	} else {
		err = yaml.Unmarshal(data, &req)
	}
	if err != nil {
		return req, fmt.Errorf("parsing request file %s: %w", path, err)
	}
	return req, nil
}
