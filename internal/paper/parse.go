// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paper turns model output into a GeneratedPaper. Parsing fails
// closed: the response must be a single JSON object whose section keys match
// the requested sections exactly once each.
package paper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pdiddy/paperforge/pkg/types"
)

// ErrorKind classifies a ParseError.
type ErrorKind string

const (
	KindNotStructured     ErrorKind = "not_structured"
	KindDuplicateSection  ErrorKind = "duplicate_section"
	KindMissingSection    ErrorKind = "missing_section"
	KindUnexpectedSection ErrorKind = "unexpected_section"
	KindWrongType         ErrorKind = "wrong_type"
	KindEmptySection      ErrorKind = "empty_section"
)

// ParseError reports model output that does not satisfy the section
// contract. Key names the offending key when there is one.
type ParseError struct {
	Kind    ErrorKind
	Key     string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("parsing model output: %s: %q: %s", e.Kind, e.Key, e.Message)
	}
	return fmt.Sprintf("parsing model output: %s: %s", e.Kind, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseOptions supplies the request context used for fallbacks.
type ParseOptions struct {
	// Mode is the response shape the prompt asked for. Empty means
	// ModeSections.
	Mode types.GenerationMode

	// Overview seeds the title when the model omits one.
	Overview string

	// Authors is used when the model omits the authors key.
	Authors string
}

const (
	keyTitle      = "title"
	keyAuthors    = "authors"
	keyAbstract   = "abstract"
	keyKeywords   = "keywords"
	keyReferences = "references"
	keySections   = "sections"
)

// Parse validates raw model output against the expected section names and
// assembles the paper. Sections appear in expected order regardless of the
// order the model used. A section named Abstract becomes paper.Abstract.
func Parse(raw string, expected []string, opts ParseOptions) (*types.GeneratedPaper, error) {
	fields, err := decodeObject(StripFences(raw))
	if err != nil {
		return nil, err
	}

	a := newAssembler(expected)
	switch opts.Mode {
	case types.ModeSections, "":
		err = a.fromSections(fields)
	case types.ModeStructured:
		err = a.fromStructured(fields)
	default:
		return nil, fmt.Errorf("parsing model output: unknown generation mode %q", opts.Mode)
	}
	if err != nil {
		return nil, err
	}
	return a.finish(opts)
}

// StripFences trims whitespace and removes a surrounding Markdown code fence
// such as ```json ... ```.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type field struct {
	key   string
	value json.RawMessage
}

// decodeObject walks the top level of a JSON object and returns its members
// in document order. Unlike json.Unmarshal into a map, repeated keys are
// preserved so they can be reported.
func decodeObject(text string) ([]field, error) {
	if text == "" {
		return nil, notStructured(errors.New("empty response"))
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, notStructured(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, notStructured(errors.New("top-level value is not an object"))
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, notStructured(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, notStructured(fmt.Errorf("unexpected token %v", tok))
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, notStructured(fmt.Errorf("value of %q: %w", key, err))
		}
		fields = append(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, notStructured(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, notStructured(errors.New("trailing content after object"))
	}
	return fields, nil
}

func notStructured(err error) *ParseError {
	return &ParseError{
		Kind:    KindNotStructured,
		Message: "model produced prose instead of structured data",
		Err:     err,
	}
}

// assembler collects section text by expected index and the auxiliary
// paper fields.
type assembler struct {
	expected []string
	index    map[string]int
	values   []string
	set      []bool
	seenAux  map[string]bool

	title      string
	authors    string
	keywords   []string
	references []string
}

func newAssembler(expected []string) *assembler {
	a := &assembler{
		expected: expected,
		index:    make(map[string]int, len(expected)),
		values:   make([]string, len(expected)),
		set:      make([]bool, len(expected)),
		seenAux:  make(map[string]bool),
	}
	for i, name := range expected {
		a.index[normalizeKey(name)] = i
	}
	return a
}

// normalizeKey matches section keys ignoring case and surrounding space.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (a *assembler) fromSections(fields []field) error {
	for _, f := range fields {
		norm := normalizeKey(f.key)
		if _, isSection := a.index[norm]; !isSection {
			switch norm {
			case keyTitle, keyAuthors, keyKeywords, keyReferences:
				if err := a.aux(norm, f); err != nil {
					return err
				}
				continue
			}
			return unexpected(f.key)
		}
		text, err := stringValue(f)
		if err != nil {
			return err
		}
		if err := a.section(f.key, text); err != nil {
			return err
		}
	}
	return nil
}

// structuredSection is one element of the "sections" array.
type structuredSection struct {
	Title   json.RawMessage `json:"title"`
	Content json.RawMessage `json:"content"`
}

func (a *assembler) fromStructured(fields []field) error {
	for _, f := range fields {
		norm := normalizeKey(f.key)
		switch norm {
		case keyTitle, keyAuthors, keyKeywords, keyReferences:
			if err := a.aux(norm, f); err != nil {
				return err
			}
		case keyAbstract:
			if a.seenAux[norm] {
				return duplicate(f.key)
			}
			a.seenAux[norm] = true
			text, err := stringValue(f)
			if err != nil {
				return err
			}
			if err := a.section(f.key, text); err != nil {
				return err
			}
		case keySections:
			if a.seenAux[norm] {
				return duplicate(f.key)
			}
			a.seenAux[norm] = true
			var secs []structuredSection
			if !isKind(f.value, '[') || json.Unmarshal(f.value, &secs) != nil {
				return wrongType(f.key, "an array of {title, content} objects")
			}
			for i, s := range secs {
				title, err := stringValue(field{key: fmt.Sprintf("sections[%d].title", i), value: s.Title})
				if err != nil {
					return err
				}
				content, err := stringValue(field{key: title, value: s.Content})
				if err != nil {
					return err
				}
				if err := a.section(title, content); err != nil {
					return err
				}
			}
		default:
			return unexpected(f.key)
		}
	}
	return nil
}

// section stores the text of a requested section.
func (a *assembler) section(key, text string) error {
	i, ok := a.index[normalizeKey(key)]
	if !ok {
		return unexpected(key)
	}
	if a.set[i] {
		return duplicate(key)
	}
	if strings.TrimSpace(text) == "" {
		return &ParseError{Kind: KindEmptySection, Key: key, Message: "section text is blank"}
	}
	a.values[i] = text
	a.set[i] = true
	return nil
}

// aux stores one of the optional lowercase paper fields.
func (a *assembler) aux(norm string, f field) error {
	if a.seenAux[norm] {
		return duplicate(f.key)
	}
	a.seenAux[norm] = true

	switch norm {
	case keyTitle, keyAuthors:
		if isKind(f.value, 'n') {
			return nil
		}
		s, err := stringValue(f)
		if err != nil {
			return err
		}
		if norm == keyTitle {
			a.title = strings.TrimSpace(s)
		} else {
			a.authors = strings.TrimSpace(s)
		}
	case keyKeywords, keyReferences:
		list, err := stringList(f)
		if err != nil {
			return err
		}
		if norm == keyKeywords {
			a.keywords = list
		} else {
			a.references = list
		}
	}
	return nil
}

func (a *assembler) finish(opts ParseOptions) (*types.GeneratedPaper, error) {
	var missing []string
	for i, ok := range a.set {
		if !ok {
			missing = append(missing, a.expected[i])
		}
	}
	if len(missing) > 0 {
		return nil, &ParseError{
			Kind:    KindMissingSection,
			Key:     missing[0],
			Message: fmt.Sprintf("response lacks requested sections: %s", strings.Join(missing, ", ")),
		}
	}

	p := &types.GeneratedPaper{
		Title:      a.title,
		Authors:    a.authors,
		Keywords:   a.keywords,
		References: a.references,
	}
	if p.Title == "" {
		p.Title = DeriveTitle(opts.Overview)
	}
	if p.Authors == "" {
		p.Authors = opts.Authors
	}
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	if p.References == nil {
		p.References = []string{}
	}

	for i, name := range a.expected {
		content := normalizeText(a.values[i])
		if types.IsAbstract(name) {
			p.Abstract = content
			continue
		}
		p.Sections = append(p.Sections, types.Section{Title: name, Content: content})
	}
	return p, nil
}

func normalizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

func isKind(raw json.RawMessage, first byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == first
}

// stringValue decodes a JSON string member. Any other JSON type is a
// KindWrongType error.
func stringValue(f field) (string, error) {
	if !isKind(f.value, '"') {
		return "", wrongType(f.key, "a string")
	}
	var s string
	if err := json.Unmarshal(f.value, &s); err != nil {
		return "", &ParseError{Kind: KindWrongType, Key: f.key, Message: "value must be a string", Err: err}
	}
	return s, nil
}

// stringList decodes an array of strings, dropping blank entries. A single
// comma-separated string is accepted as well; null yields an empty list.
func stringList(f field) ([]string, error) {
	var items []string
	switch {
	case isKind(f.value, 'n'):
		return []string{}, nil
	case isKind(f.value, '"'):
		s, err := stringValue(f)
		if err != nil {
			return nil, err
		}
		items = strings.Split(s, ",")
	case isKind(f.value, '['):
		if err := json.Unmarshal(f.value, &items); err != nil {
			return nil, &ParseError{Kind: KindWrongType, Key: f.key, Message: "value must be an array of strings", Err: err}
		}
	default:
		return nil, wrongType(f.key, "an array of strings")
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out, nil
}

func wrongType(key, want string) *ParseError {
	return &ParseError{Kind: KindWrongType, Key: key, Message: "value must be " + want}
}

func duplicate(key string) *ParseError {
	return &ParseError{Kind: KindDuplicateSection, Key: key, Message: "key appears more than once"}
}

func unexpected(key string) *ParseError {
	return &ParseError{Kind: KindUnexpectedSection, Key: key, Message: "key was not requested"}
}

const maxTitleWords = 12

// DeriveTitle builds a fallback title from the first sentence of the
// overview, capped at a dozen words.
func DeriveTitle(overview string) string {
	s := strings.TrimSpace(overview)
	if i := strings.IndexAny(s, ".!?\n"); i >= 0 {
		s = s[:i]
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return "Untitled Paper"
	}
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title := strings.TrimRight(strings.Join(words, " "), ",;:-")
	if title == "" {
		return "Untitled Paper"
	}
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
