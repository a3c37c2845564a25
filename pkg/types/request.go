// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperforge pipeline:
// the inbound PaperRequest, the GeneratedPaper produced from model output,
// progress events, and configuration for each stage.
package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Request bounds enforced by Validate.
const (
	MinOverviewLength = 30
	MinPageCount      = 4
	MaxPageCount      = 20
	MinSections       = 5
	MaxSections       = 20
)

// FormatIEEE is the only publication layout the renderer implements.
const FormatIEEE = "IEEE"

// SupportedFormats lists the accepted values of PaperRequest.Format.
var SupportedFormats = []string{FormatIEEE}

// reservedSections are rendered from dedicated fields and cannot be
// requested as body sections.
var reservedSections = map[string]bool{
	"title":      true,
	"authors":    true,
	"keywords":   true,
	"references": true,
}

// PaperRequest is the caller's description of the paper to generate.
type PaperRequest struct {
	// Overview is the free-text project description driving the content.
	Overview string `json:"overview" yaml:"overview"`

	// Format selects the publication layout (e.g. "IEEE").
	Format string `json:"format" yaml:"format"`

	// PageCount is the desired length of the paper in pages.
	PageCount int `json:"page_count" yaml:"page_count"`

	// Sections lists the section names in the order they appear in the paper.
	Sections []string `json:"sections" yaml:"sections"`

	// Authors is the optional author/affiliation block. Lines are separated
	// by "\n". When empty the configured default is used.
	Authors string `json:"authors,omitempty" yaml:"authors,omitempty"`
}

// Clone returns a deep copy so a pipeline run never shares the caller's slice.
func (r PaperRequest) Clone() PaperRequest {
	c := r
	c.Sections = append([]string(nil), r.Sections...)
	return c
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field of a request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

// Fields returns the names of the invalid fields in report order.
func (v ValidationErrors) Fields() []string {
	out := make([]string, len(v))
	for i, e := range v {
		out[i] = e.Field
	}
	return out
}

// Validate checks every field and reports all problems at once. It returns
// nil when the request is acceptable.
func (r PaperRequest) Validate() error {
	var errs ValidationErrors

	if n := utf8.RuneCountInString(strings.TrimSpace(r.Overview)); n < MinOverviewLength {
		errs = append(errs, FieldError{
			Field:   "overview",
			Message: fmt.Sprintf("must be at least %d characters (got %d)", MinOverviewLength, n),
		})
	}

	if !IsSupportedFormat(r.Format) {
		errs = append(errs, FieldError{
			Field:   "format",
			Message: fmt.Sprintf("unsupported format %q: use one of %s", r.Format, strings.Join(SupportedFormats, ", ")),
		})
	}

	if r.PageCount < MinPageCount || r.PageCount > MaxPageCount {
		errs = append(errs, FieldError{
			Field:   "page_count",
			Message: fmt.Sprintf("must be between %d and %d (got %d)", MinPageCount, MaxPageCount, r.PageCount),
		})
	}

	errs = append(errs, validateSections(r.Sections)...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateSections(sections []string) ValidationErrors {
	var errs ValidationErrors
	switch {
	case len(sections) < MinSections:
		errs = append(errs, FieldError{
			Field:   "sections",
			Message: fmt.Sprintf("at least %d sections required (got %d)", MinSections, len(sections)),
		})
	case len(sections) > MaxSections:
		errs = append(errs, FieldError{
			Field:   "sections",
			Message: fmt.Sprintf("at most %d sections allowed (got %d)", MaxSections, len(sections)),
		})
	}

	seen := make(map[string]int, len(sections))
	for i, name := range sections {
		field := fmt.Sprintf("sections[%d]", i)
		trimmed := strings.TrimSpace(name)
		key := strings.ToLower(trimmed)
		switch {
		case trimmed == "":
			errs = append(errs, FieldError{Field: field, Message: "section name is blank"})
		case trimmed != name:
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("section name %q has surrounding whitespace", name)})
		case reservedSections[key]:
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("section name %q is reserved", name)})
		default:
			if prev, dup := seen[key]; dup {
				errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("duplicates sections[%d] %q", prev, sections[prev])})
				continue
			}
			seen[key] = i
		}
	}
	return errs
}

// IsSupportedFormat reports whether format names a known layout. Matching is
// case-insensitive.
func IsSupportedFormat(format string) bool {
	for _, f := range SupportedFormats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// IsAbstract reports whether a section name refers to the abstract, which is
// rendered in its own block instead of as a numbered section.
func IsAbstract(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "abstract")
}
