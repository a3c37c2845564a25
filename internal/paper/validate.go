// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paper

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperforge/pkg/types"
)

// Validate checks that a paper has everything the renderer lays out: a
// title, an abstract, and at least one section with a title and content.
func Validate(p *types.GeneratedPaper) error {
	if p == nil {
		return errors.New("paper not renderable: no paper")
	}
	var problems []string
	if strings.TrimSpace(p.Title) == "" {
		problems = append(problems, "title is blank")
	}
	if strings.TrimSpace(p.Abstract) == "" {
		problems = append(problems, "abstract is blank")
	}
	if len(p.Sections) == 0 {
		problems = append(problems, "no sections")
	}
	for i, s := range p.Sections {
		if strings.TrimSpace(s.Title) == "" {
			problems = append(problems, fmt.Sprintf("sections[%d]: title is blank", i))
		}
		if strings.TrimSpace(s.Content) == "" {
			problems = append(problems, fmt.Sprintf("sections[%d] %q: content is blank", i, s.Title))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("paper not renderable: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads a GeneratedPaper from a YAML or JSON file and validates it.
// The format is chosen by extension; anything other than .json is read as
// YAML.
func Load(path string) (*types.GeneratedPaper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading paper file: %w", err)
	}

	var p types.GeneratedPaper
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing paper file %s: %w", path, err)
	}

	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}
