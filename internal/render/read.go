// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Paragraph is one paragraph read back from a rendered document.
type Paragraph struct {
	Style string
	Text  string
}

// ReadParagraphs returns the visible text of every paragraph in the
// document body, in order. Line breaks within a paragraph become "\n" and
// empty spacer paragraphs are returned as "".
func ReadParagraphs(path string) ([]string, error) {
	paras, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(paras))
	for i, p := range paras {
		out[i] = p.Text
	}
	return out, nil
}

// Headings returns the text of the heading paragraphs: Abstract, Keywords,
// the numbered sections, and References.
func Headings(path string) ([]string, error) {
	paras, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range paras {
		if p.Style == styleHeading {
			out = append(out, p.Text)
		}
	}
	return out, nil
}

// Title returns the text of the title paragraph, or "" when there is none.
func Title(path string) (string, error) {
	paras, err := ReadDocument(path)
	if err != nil {
		return "", err
	}
	for _, p := range paras {
		if p.Style == styleTitle {
			return p.Text, nil
		}
	}
	return "", nil
}

// ReadDocument opens a DOCX file and returns its body paragraphs with their
// paragraph style identifiers.
func ReadDocument(path string) ([]Paragraph, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening document part: %w", err)
		}
		defer rc.Close()
		paras, err := decodeParagraphs(rc)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return paras, nil
	}
	return nil, fmt.Errorf("reading %s: %w", path, errors.New("word/document.xml not found"))
}

// decodeParagraphs streams document.xml and collects w:p text. Only w:t
// character data and w:br breaks contribute to the text.
func decodeParagraphs(r io.Reader) ([]Paragraph, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []Paragraph
		cur    *Paragraph
		text   strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return paras, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				cur = &Paragraph{}
				text.Reset()
			case "pStyle":
				if cur != nil {
					cur.Style = attr(t, "val")
				}
			case "t":
				inText = true
			case "br":
				if cur != nil {
					text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if cur != nil {
					cur.Text = text.String()
					paras = append(paras, *cur)
					cur = nil
				}
			}
		case xml.CharData:
			if inText && cur != nil {
				text.Write(t)
			}
		}
	}
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
