// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ParagraphSeparator splits section content into paragraphs.
const ParagraphSeparator = "\n\n"

// GenerationMode selects the shape of the structured content the model is
// asked to return.
type GenerationMode string

const (
	// ModeSections asks for a flat object keyed by section name, plus the
	// optional lowercase keys title, authors, keywords, and references.
	ModeSections GenerationMode = "sections"

	// ModeStructured asks for an object mirroring GeneratedPaper.
	ModeStructured GenerationMode = "structured"
)

// Section is one numbered division of the paper body.
type Section struct {
	// Title is the section heading without numbering (e.g. "Introduction").
	Title string `json:"title" yaml:"title"`

	// Content is the body text. Paragraphs are separated by a blank line.
	Content string `json:"content" yaml:"content"`
}

// Paragraphs splits Content on blank lines and drops empty paragraphs.
// Windows line endings are normalized first.
func (s Section) Paragraphs() []string {
	return SplitParagraphs(s.Content)
}

// SplitParagraphs splits text on blank lines, trimming each paragraph.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, ParagraphSeparator) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GeneratedPaper is the structured content produced from model output and
// consumed once by the document renderer.
type GeneratedPaper struct {
	Title      string    `json:"title" yaml:"title"`
	Authors    string    `json:"authors" yaml:"authors"`
	Abstract   string    `json:"abstract" yaml:"abstract"`
	Keywords   []string  `json:"keywords" yaml:"keywords"`
	Sections   []Section `json:"sections" yaml:"sections"`
	References []string  `json:"references" yaml:"references"`

	// OutputFile is the path of the rendered document. It is empty until
	// the renderer has written the file.
	OutputFile string `json:"output_file,omitempty" yaml:"output_file,omitempty"`
}

// SectionTitles returns the numbered section titles in order.
func (p *GeneratedPaper) SectionTitles() []string {
	titles := make([]string, len(p.Sections))
	for i, s := range p.Sections {
		titles[i] = s.Title
	}
	return titles
}
