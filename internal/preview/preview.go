// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview renders a paper as Markdown and as a standalone HTML page
// so it can be read in a browser before opening the document.
package preview

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/pdiddy/paperforge/internal/render"
	"github.com/pdiddy/paperforge/pkg/types"
)

const pageStyle = `body{font-family:"Times New Roman",serif;max-width:60em;margin:2em auto;padding:0 1em}
h1{text-align:center;font-size:22pt}
.authors{text-align:center;font-size:9pt;white-space:pre-line}
.body{column-count:2;column-gap:0.5in;font-size:9pt;text-align:justify}
h2{text-align:center;font-size:10pt}`

// escape keeps model text literal: goldmark drops raw HTML by default, so
// angle brackets are written as entities.
func escape(s string) string {
	return strings.ReplaceAll(s, "<", "&lt;")
}

// Markdown mirrors the document layout: title, authors, abstract,
// keywords, Roman-numbered sections, and references.
func Markdown(p *types.GeneratedPaper) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "## Abstract\n\n")
	for _, para := range types.SplitParagraphs(p.Abstract) {
		fmt.Fprintf(&b, "**%s**\n\n", escape(para))
	}

	if len(p.Keywords) > 0 {
		fmt.Fprintf(&b, "## Keywords\n\n**%s**\n\n", escape(strings.Join(p.Keywords, ", ")))
	}

	for i, sec := range p.Sections {
		h, err := render.SectionHeading(i+1, sec.Title)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "## %s\n\n", escape(h))
		for _, para := range sec.Paragraphs() {
			fmt.Fprintf(&b, "%s\n\n", escape(para))
		}
	}

	fmt.Fprintf(&b, "## References\n\n")
	for _, ref := range p.References {
		// A leading "[1]" would otherwise be read as a link reference.
		fmt.Fprintf(&b, "%s\n\n", escape(strings.Replace(ref, "[", "\\[", 1)))
	}
	return b.String(), nil
}

// HTML converts the paper to a complete HTML page.
func HTML(p *types.GeneratedPaper) (string, error) {
	md, err := Markdown(p)
	if err != nil {
		return "", err
	}
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n", html.EscapeString(p.Title), pageStyle)
	fmt.Fprintf(&page, "<h1>%s</h1>\n", html.EscapeString(p.Title))
	fmt.Fprintf(&page, "<p class=\"authors\">%s</p>\n", html.EscapeString(p.Authors))
	fmt.Fprintf(&page, "<div class=\"body\">\n%s</div>\n</body>\n</html>\n", body.String())
	return page.String(), nil
}

// Write saves the HTML preview next to docPath, replacing its extension
// with .html, and returns the preview path.
func Write(p *types.GeneratedPaper, docPath string) (string, error) {
	out, err := HTML(p)
	if err != nil {
		return "", err
	}
	path := strings.TrimSuffix(docPath, render.Extension) + ".html"
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return "", fmt.Errorf("writing preview: %w", err)
	}
	return path, nil
}
