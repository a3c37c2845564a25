// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperforge/pkg/types"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r := New(t.TempDir(), nil)
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

func samplePaper() *types.GeneratedPaper {
	return &types.GeneratedPaper{
		Title:    "Edge Caching for Sensor Networks",
		Authors:  "A. Author\nDept. of Engineering\nExample University",
		Abstract: "We study caching at the network edge.",
		Keywords: []string{"A", "B", "C"},
		Sections: []types.Section{
			{Title: "Introduction", Content: "First paragraph [1].\n\nSecond paragraph."},
			{Title: "Conclusion", Content: "Closing remarks."},
		},
		References: []string{"[1] A. Author, \"Caching,\" Journal, 2024."},
	}
}

func readPart(t *testing.T, path, name string) string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("part %s not found in %s", name, path)
	return ""
}

func TestRender_ParagraphSequence(t *testing.T) {
	r := newTestRenderer(t)
	path, err := r.Render(samplePaper())
	require.NoError(t, err)

	paras, err := ReadParagraphs(path)
	require.NoError(t, err)

	want := []string{
		"Edge Caching for Sensor Networks",
		"A. Author\nDept. of Engineering\nExample University",
		"Abstract",
		"We study caching at the network edge.",
		"Keywords",
		"A, B, C",
		"I. Introduction",
		"First paragraph [1].",
		"Second paragraph.",
		"",
		"II. Conclusion",
		"Closing remarks.",
		"",
		"References",
		"[1] A. Author, \"Caching,\" Journal, 2024.",
	}
	assert.Equal(t, want, paras)
}

func TestRender_HeadingsFollowSectionOrder(t *testing.T) {
	for _, n := range []int{1, 4, 9, 14, 20} {
		t.Run(fmt.Sprintf("%d sections", n), func(t *testing.T) {
			p := samplePaper()
			p.Sections = nil
			var want []string
			want = append(want, "Abstract", "Keywords")
			for i := 1; i <= n; i++ {
				title := fmt.Sprintf("Section %d", i)
				p.Sections = append(p.Sections, types.Section{Title: title, Content: "Body."})
				h, err := SectionHeading(i, title)
				require.NoError(t, err)
				want = append(want, h)
			}
			want = append(want, "References")

			path, err := newTestRenderer(t).Render(p)
			require.NoError(t, err)

			got, err := Headings(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRender_NoKeywordsOmitsHeading(t *testing.T) {
	p := samplePaper()
	p.Keywords = nil

	path, err := newTestRenderer(t).Render(p)
	require.NoError(t, err)

	headings, err := Headings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Abstract", "I. Introduction", "II. Conclusion", "References"}, headings)

	paras, err := ReadParagraphs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Abstract",
		"We study caching at the network edge.",
		"I. Introduction",
	}, paras[2:5])
}

func TestRender_Title(t *testing.T) {
	path, err := newTestRenderer(t).Render(samplePaper())
	require.NoError(t, err)

	title, err := Title(path)
	require.NoError(t, err)
	assert.Equal(t, "Edge Caching for Sensor Networks", title)
}

func TestRender_PageLayout(t *testing.T) {
	path, err := newTestRenderer(t).Render(samplePaper())
	require.NoError(t, err)

	doc := readPart(t, path, "word/document.xml")

	assert.Equal(t, 2, strings.Count(doc, `<w:pgSz w:w="11909" w:h="16834"></w:pgSz>`))
	assert.Contains(t, doc, `<w:pgMar w:top="720" w:right="720" w:bottom="720" w:left="720"`)
	assert.Contains(t, doc, `<w:cols w:num="1" w:space="720"></w:cols>`)
	assert.Contains(t, doc, `<w:type w:val="continuous"></w:type>`)
	assert.Contains(t, doc, `<w:cols w:num="2" w:space="720"></w:cols>`)

	// 22pt title, 10pt headings, 9pt body.
	assert.Contains(t, doc, `<w:sz w:val="44"></w:sz>`)
	assert.Contains(t, doc, `<w:sz w:val="20"></w:sz>`)
	assert.Contains(t, doc, `<w:sz w:val="18"></w:sz>`)
	assert.Contains(t, doc, `<w:spacing w:after="52" w:line="240" w:lineRule="auto"></w:spacing>`)
	assert.Contains(t, doc, `<w:jc w:val="both"></w:jc>`)
	assert.Contains(t, doc, `w:ascii="Times New Roman"`)

	// The one-column section ends with the author block.
	authorsIdx := strings.Index(doc, "Example University")
	firstBreak := strings.Index(doc, `<w:cols w:num="1"`)
	abstractIdx := strings.Index(doc, ">Abstract<")
	assert.Less(t, authorsIdx, firstBreak)
	assert.Less(t, firstBreak, abstractIdx)
}

func TestRender_CoreProperties(t *testing.T) {
	path, err := newTestRenderer(t).Render(samplePaper())
	require.NoError(t, err)

	core := readPart(t, path, "docProps/core.xml")
	assert.Contains(t, core, "<dc:title>Edge Caching for Sensor Networks</dc:title>")
	assert.Contains(t, core, "<dc:creator>A. Author</dc:creator>")
	assert.Contains(t, core, "<cp:keywords>A, B, C</cp:keywords>")
	assert.Contains(t, core, "2026-01-02T03:04:05Z")

	ct := readPart(t, path, "[Content_Types].xml")
	assert.Contains(t, ct, "/word/document.xml")
}

func TestRender_EscapesMarkup(t *testing.T) {
	p := samplePaper()
	p.Sections[0].Content = `Values <b> & "quotes" stay literal.`

	path, err := newTestRenderer(t).Render(p)
	require.NoError(t, err)

	paras, err := ReadParagraphs(path)
	require.NoError(t, err)
	assert.Contains(t, paras, `Values <b> & "quotes" stay literal.`)
}

func TestRender_UsesOutputFile(t *testing.T) {
	r := newTestRenderer(t)
	p := samplePaper()
	p.OutputFile = FileName(p.Title, "req-1")

	path, err := r.Render(p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir, "edge-caching-for-sensor-networks-req-1.docx"), path)

	entries, err := os.ReadDir(r.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not remain")
	assert.Equal(t, filepath.Base(path), entries[0].Name())
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name  string
		paper func() *types.GeneratedPaper
	}{
		{"nil paper", func() *types.GeneratedPaper { return nil }},
		{"blank title", func() *types.GeneratedPaper {
			p := samplePaper()
			p.Title = "  "
			return p
		}},
		{"blank abstract", func() *types.GeneratedPaper {
			p := samplePaper()
			p.Abstract = "\n\t"
			return p
		}},
		{"nil sections", func() *types.GeneratedPaper {
			p := samplePaper()
			p.Sections = nil
			return p
		}},
		{"section without content", func() *types.GeneratedPaper {
			p := samplePaper()
			p.Sections[1].Content = " "
			return p
		}},
		{"title only", func() *types.GeneratedPaper {
			return &types.GeneratedPaper{Title: "Only A Title"}
		}},
		{"path in output name", func() *types.GeneratedPaper {
			p := samplePaper()
			p.OutputFile = "../escape.docx"
			return p
		}},
		{"wrong extension", func() *types.GeneratedPaper {
			p := samplePaper()
			p.OutputFile = "paper.pdf"
			return p
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRenderer(t)
			path, err := r.Render(tt.paper())
			require.Error(t, err)
			assert.Empty(t, path)

			var re *Error
			assert.True(t, errors.As(err, &re))

			entries, _ := os.ReadDir(r.OutputDir)
			assert.Empty(t, entries)
		})
	}
}

func TestRender_ExistingFileIsNotOverwritten(t *testing.T) {
	r := newTestRenderer(t)
	p := samplePaper()
	p.OutputFile = "fixed.docx"

	_, err := r.Render(p)
	require.NoError(t, err)

	_, err = r.Render(p)
	require.Error(t, err)

	entries, err := os.ReadDir(r.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic_KeepsFileCreatedAfterCheck(t *testing.T) {
	r := newTestRenderer(t)
	p := samplePaper()
	doc, err := r.layout().build(p)
	require.NoError(t, err)

	path := filepath.Join(r.OutputDir, "taken.docx")
	require.NoError(t, os.WriteFile(path, []byte("earlier"), 0o644))

	err = r.writeAtomic(path, doc, r.core(p))
	require.ErrorIs(t, err, errExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "earlier", string(data))

	entries, err := os.ReadDir(r.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestRender_ConcurrentNamesDoNotCollide(t *testing.T) {
	r := newTestRenderer(t)
	const n = 16

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		paths = make(map[string]bool)
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path, err := r.Render(samplePaper())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			paths[path] = true
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, paths, n)
}

func TestReadParagraphs_NotADocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := ReadParagraphs(path)
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Edge Caching for Sensor Networks", "edge-caching-for-sensor-networks"},
		{"  A/B Testing: 2026!  ", "a-b-testing-2026"},
		{"", "paper"},
		{"???", "paper"},
		{strings.Repeat("word ", 30), strings.TrimRight(strings.Repeat("word-", 12), "-")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}

func TestLayoutFor(t *testing.T) {
	l, err := LayoutFor("ieee")
	require.NoError(t, err)
	assert.Equal(t, IEEELayout, l)

	_, err = LayoutFor("ACM")
	assert.Error(t, err)
}
