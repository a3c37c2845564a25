// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes a GeneratedPaper as a paginated, two-column Office
// Open XML (DOCX) document and reads rendered documents back for inspection.
package render

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/paperforge/internal/paper"
	"github.com/pdiddy/paperforge/pkg/types"
)

// Extension is the file extension of rendered documents.
const Extension = ".docx"

const maxSlugLength = 60

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

var errExists = errors.New("output file already exists")

// Error reports a failure to produce the document. No file is left behind
// when it is returned.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rendering document: %v", e.Err)
	}
	return fmt.Sprintf("rendering document %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Renderer writes documents into OutputDir using a fixed Layout.
type Renderer struct {
	OutputDir string
	Layout    Layout
	Logger    *zap.Logger

	// now is overridden in tests for stable core properties.
	now func() time.Time
}

// New returns a Renderer for the IEEE layout.
func New(outputDir string, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		OutputDir: outputDir,
		Layout:    IEEELayout,
		Logger:    logger.With(zap.String("component", "render")),
		now:       time.Now,
	}
}

// Slug turns a title into a lowercase, hyphen-separated file name stem.
func Slug(title string) string {
	s := nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "paper"
	}
	return s
}

// FileName returns the output file name for a paper produced by a request.
func FileName(title, requestID string) string {
	return Slug(title) + "-" + requestID + Extension
}

// Render writes the paper and returns the path of the finished file. When
// OutputFile is empty a name is generated from the title and a fresh UUID. A paper missing its title, abstract or sections is rejected before
// anything is written. The file appears atomically: it is written under a
// temporary name in the output directory and linked into place once complete,
// so an existing file of the same name is never replaced.
func (r *Renderer) Render(p *types.GeneratedPaper) (string, error) {
	if err := paper.Validate(p); err != nil {
		return "", &Error{Err: err}
	}

	name := p.OutputFile
	if name == "" {
		name = FileName(p.Title, uuid.NewString())
	}
	if filepath.Base(name) != name || !strings.HasSuffix(name, Extension) {
		return "", &Error{Err: fmt.Errorf("invalid output file name %q", name)}
	}
	path := filepath.Join(r.OutputDir, name)

	doc, err := r.layout().build(p)
	if err != nil {
		return "", &Error{Path: path, Err: err}
	}

	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return "", &Error{Path: path, Err: fmt.Errorf("creating output directory: %w", err)}
	}
	if _, err := os.Stat(path); err == nil {
		return "", &Error{Path: path, Err: errExists}
	}

	if err := r.writeAtomic(path, doc, r.core(p)); err != nil {
		return "", &Error{Path: path, Err: err}
	}

	r.Logger.Debug("rendered document",
		zap.String("path", path),
		zap.Int("paragraphs", len(doc.Body.Paragraphs)),
		zap.Int("sections", len(p.Sections)))
	return path, nil
}

func (r *Renderer) layout() Layout {
	if r.Layout.PageWidth == 0 {
		return IEEELayout
	}
	return r.Layout
}

func (r *Renderer) core(p *types.GeneratedPaper) coreProperties {
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	creator, _, _ := strings.Cut(p.Authors, "\n")
	return coreProperties{
		XmlnsCP:      nsCP,
		XmlnsDC:      nsDC,
		XmlnsDCTerms: nsDCTerms,
		XmlnsXSI:     nsXSI,
		Title:        p.Title,
		Creator:      strings.TrimSpace(creator),
		Keywords:     strings.Join(p.Keywords, ", "),
		Created:      w3cDate{Type: "dcterms:W3CDTF", Value: now().UTC().Format(time.RFC3339)},
	}
}

// writeAtomic writes the package to a temp file next to path and hard-links it
// into place. The link fails when path already exists. The temp file is always
// removed.
func (r *Renderer) writeAtomic(path string, doc wDocument, core coreProperties) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*"+Extension)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
		}
		os.Remove(tmpName)
	}()

	if err = writePackage(tmp, doc, core); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errExists
		}
		return fmt.Errorf("linking into place: %w", err)
	}
	return nil
}

// writePackage writes the zip container, [Content_Types].xml first.
func writePackage(w io.Writer, doc wDocument, core coreProperties) error {
	zw := zip.NewWriter(w)

	static := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/_rels/document.xml.rels", documentRelsXML},
		{"word/styles.xml", stylesXML},
	}
	for _, part := range static {
		if err := writePart(zw, part.name, []byte(part.body)); err != nil {
			return err
		}
	}

	if err := writeXMLPart(zw, "word/document.xml", doc); err != nil {
		return err
	}
	if err := writeXMLPart(zw, "docProps/core.xml", core); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zip: %w", err)
	}
	return nil
}

func writeXMLPart(zw *zip.Writer, name string, v any) error {
	data, err := xml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return writePart(zw, name, append([]byte(xml.Header), data...))
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
