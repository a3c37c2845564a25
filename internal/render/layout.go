// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paperforge/pkg/types"
)

// Layout holds the page geometry and type sizes of a publication format.
// Lengths are in twentieths of a point (twips), font sizes in half-points.
type Layout struct {
	PageWidth   int
	PageHeight  int
	Margin      int
	ColumnGap   int
	Font        string
	TitleSize   int
	AuthorSize  int
	HeadingSize int
	BodySize    int
	SpaceAfter  int
}

// IEEELayout is the two-column conference layout on A4 paper: 8.27in x
// 11.69in, 0.5in margins, a 0.5in gutter, 22pt title, 10pt headings, and 9pt
// body text with 2.6pt after each paragraph.
var IEEELayout = Layout{
	PageWidth:   11909,
	PageHeight:  16834,
	Margin:      720,
	ColumnGap:   720,
	Font:        "Times New Roman",
	TitleSize:   44,
	AuthorSize:  18,
	HeadingSize: 20,
	BodySize:    18,
	SpaceAfter:  52,
}

// Paragraph style identifiers written to pStyle and read back by Headings.
const (
	styleTitle   = "PaperTitle"
	styleAuthors = "PaperAuthors"
	styleHeading = "PaperHeading"
	styleBody    = "PaperBody"
)

const (
	headingAbstract   = "Abstract"
	headingKeywords   = "Keywords"
	headingReferences = "References"
)

// LayoutFor returns the layout of a supported publication format.
func LayoutFor(format string) (Layout, error) {
	if strings.EqualFold(format, types.FormatIEEE) || format == "" {
		return IEEELayout, nil
	}
	return Layout{}, fmt.Errorf("no layout for format %q", format)
}

// build lays the paper out as a one-column title block followed by a
// continuous section break and the two-column body. Only numbered sections
// are followed by an empty paragraph.
func (l Layout) build(p *types.GeneratedPaper) (wDocument, error) {
	var paras []wParagraph

	paras = append(paras, l.title(p.Title))
	paras = append(paras, l.authors(p.Authors))

	paras = append(paras, l.heading(headingAbstract))
	for _, text := range types.SplitParagraphs(p.Abstract) {
		paras = append(paras, l.body(text, true))
	}

	if len(p.Keywords) > 0 {
		paras = append(paras, l.heading(headingKeywords))
		paras = append(paras, l.body(strings.Join(p.Keywords, ", "), true))
	}

	for i, sec := range p.Sections {
		h, err := SectionHeading(i+1, sec.Title)
		if err != nil {
			return wDocument{}, fmt.Errorf("numbering section %q: %w", sec.Title, err)
		}
		paras = append(paras, l.heading(h))
		for _, text := range sec.Paragraphs() {
			paras = append(paras, l.body(text, false))
		}
		paras = append(paras, wParagraph{})
	}

	paras = append(paras, l.heading(headingReferences))
	for _, ref := range p.References {
		if ref = strings.TrimSpace(ref); ref != "" {
			paras = append(paras, l.body(ref, false))
		}
	}

	body := l.sectPr(1)
	body.Type = &wVal{Val: "continuous"}
	body.Cols = wCols{Num: 2, Space: l.ColumnGap}

	return wDocument{
		XmlnsW: nsW,
		XmlnsR: nsR,
		Body:   wBody{Paragraphs: paras, SectPr: body},
	}, nil
}

func (l Layout) sectPr(cols int) *wSectPr {
	return &wSectPr{
		PgSz: wPageSize{W: l.PageWidth, H: l.PageHeight},
		PgMar: wMargins{
			Top: l.Margin, Right: l.Margin, Bottom: l.Margin, Left: l.Margin,
			Header: l.Margin, Footer: l.Margin,
		},
		Cols: wCols{Num: cols, Space: l.ColumnGap},
	}
}

func (l Layout) runProps(size int, bold bool) *wRPr {
	rpr := &wRPr{
		Fonts: &wFonts{ASCII: l.Font, HAnsi: l.Font, CS: l.Font},
		Size:  &wVal{Val: fmt.Sprint(size)},
		SizeC: &wVal{Val: fmt.Sprint(size)},
	}
	if bold {
		rpr.Bold = &wEmpty{}
	}
	return rpr
}

func textRun(rpr *wRPr, s string) wRun {
	return wRun{RPr: rpr, Text: &wText{Space: "preserve", Value: s}}
}

func (l Layout) title(s string) wParagraph {
	return wParagraph{
		PPr:  &wPPr{PStyle: &wVal{Val: styleTitle}, Jc: &wVal{Val: "center"}},
		Runs: []wRun{textRun(l.runProps(l.TitleSize, true), s)},
	}
}

// authors renders each line of the author block as a line break within one
// paragraph. The paragraph closes the one-column title section.
func (l Layout) authors(s string) wParagraph {
	rpr := l.runProps(l.AuthorSize, false)
	var runs []wRun
	for i, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		r := textRun(rpr, line)
		if i > 0 {
			r.Br = &wEmpty{}
		}
		runs = append(runs, r)
	}
	return wParagraph{
		PPr: &wPPr{
			PStyle: &wVal{Val: styleAuthors},
			Jc:     &wVal{Val: "center"},
			SectPr: l.sectPr(1),
		},
		Runs: runs,
	}
}

func (l Layout) heading(s string) wParagraph {
	return wParagraph{
		PPr: &wPPr{
			PStyle:  &wVal{Val: styleHeading},
			Spacing: &wSpacing{After: l.SpaceAfter},
			Jc:      &wVal{Val: "center"},
		},
		Runs: []wRun{textRun(l.runProps(l.HeadingSize, true), s)},
	}
}

// body is a justified, single-spaced paragraph. Bold is used for the
// abstract and keywords.
func (l Layout) body(s string, bold bool) wParagraph {
	return wParagraph{
		PPr: &wPPr{
			PStyle:  &wVal{Val: styleBody},
			Spacing: &wSpacing{After: l.SpaceAfter, Line: 240, LineRule: "auto"},
			Jc:      &wVal{Val: "both"},
		},
		Runs: []wRun{textRun(l.runProps(l.BodySize, bold), s)},
	}
}
