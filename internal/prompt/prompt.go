// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt turns a PaperRequest into the instruction text sent to the
// completion service. The template is static and parsed once; only the
// request fields vary.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paperforge/pkg/types"
)

const (
	wordsPerPageLow  = 450
	wordsPerPageHigh = 500
)

// System is the system message that accompanies every prompt.
const System = "You are an expert academic research writer, technical author, and scientific editor. You answer with a single JSON object and nothing else."

// paperPromptTmpl is the instruction document. The variable inputs are
// embedded verbatim at the end.
var paperPromptTmpl = template.Must(template.New("paper").Parse(`Your task is to write a structured research paper strictly based on the inputs provided.

CRITICAL RULES:
1. Return valid JSON only.
2. Do not write any text outside the JSON object.
3. Do not use markdown, code fences, comments, or explanations.
4. Do not invent sections that are not listed in the inputs.
5. Every section must be complete, coherent, formal, and academic.
6. If any constraint conflicts with another, JSON validity wins.

LENGTH:
- Assume one page holds {{.WordsLow}} to {{.WordsHigh}} academic words.
- The whole paper must be about {{.TotalWords}} words for {{.Pages}} pages.
- Distribute the length across sections in proportion to their role.
- Never mention word counts in the output.

SECTION RULES:
- Write content only for the listed sections.
- Use every section name exactly as given as a JSON key.
- Do not repeat content across sections.
- Keep terminology consistent from section to section.

PARAGRAPH STRUCTURE:
- Each paragraph holds 4 to 6 complete academic sentences about one sub-idea.
- Separate paragraphs with a blank line, written as "\n\n" inside the JSON string.
- Do not use bullet points, numbering, tables, or inline headings.
- Paragraph counts per section:
{{- range .Sections}}
  - {{.Name}}: {{.Paragraphs}}
{{- end}}

SECTION-AWARE FLOW:
- Introductory sections: context, motivation, then the problem or gap.
- Review sections: one distinct theme or approach per paragraph.
- Technical sections: the logical execution or design flow.
- Results sections: setup, observation, then interpretation.
- Conclusion sections: summary, implications, then future scope.

OUTPUT FORMAT:
{{.OutputFormat}}

JSON RULES:
- All keys and string values are valid JSON strings with quotes escaped.
- No trailing commas.
- The output must be directly parsable.

INPUTS TO USE:
Project Description: {{.Overview}}
Number of Pages: {{.Pages}}
Sections List: {{.SectionList}}
`))

const sectionsFormat = `Return a single JSON object. Each listed section name is a key whose value is the section text. Also include these keys:
- "title": the paper title as a string
- "keywords": an array of 4 to 6 keyword strings
- "references": an array of reference strings, each starting with its number in brackets, e.g. "[1] A. Author, \"Title,\" Venue, Year."

{
  "title": "Paper Title",
  "Section Name 1": "Paragraph 1\n\nParagraph 2\n\nParagraph 3",
  "Section Name 2": "Paragraph 1\n\nParagraph 2\n\nParagraph 3",
  "keywords": ["Keyword One", "Keyword Two"],
  "references": ["[1] ...", "[2] ..."]
}`

const structuredFormat = `Return a single JSON object with exactly these keys:
- "title": the paper title
- "abstract": the abstract as one paragraph
- "keywords": an array of 4 to 6 keyword strings
- "sections": an array of {"title", "content"} objects, one per listed section other than Abstract, in the listed order, with "title" equal to the section name
- "references": an array of reference strings, each starting with its number in brackets

{
  "title": "Paper Title",
  "abstract": "One long paragraph.",
  "keywords": ["Keyword One", "Keyword Two"],
  "sections": [{"title": "Section Name 1", "content": "Paragraph 1\n\nParagraph 2"}],
  "references": ["[1] ...", "[2] ..."]
}`

// BuildError reports a failure to produce the prompt text.
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building prompt: %v", e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

type sectionSpec struct {
	Name       string
	Paragraphs string
}

type promptData struct {
	Overview     string
	Pages        int
	WordsLow     int
	WordsHigh    int
	TotalWords   int
	Sections     []sectionSpec
	SectionList  string
	OutputFormat string
}

// Build renders the prompt for req in the given generation mode. An empty
// mode means ModeSections.
func Build(req types.PaperRequest, mode types.GenerationMode) (string, error) {
	keys := ExpectedKeys(req)

	list, err := json.Marshal(keys)
	if err != nil {
		return "", &BuildError{Err: fmt.Errorf("encoding section list: %w", err)}
	}

	var format string
	switch mode {
	case types.ModeSections, "":
		format = sectionsFormat
	case types.ModeStructured:
		format = structuredFormat
	default:
		return "", &BuildError{Err: fmt.Errorf("unknown generation mode %q", mode)}
	}

	data := promptData{
		Overview:     req.Overview,
		Pages:        req.PageCount,
		WordsLow:     wordsPerPageLow,
		WordsHigh:    wordsPerPageHigh,
		TotalWords:   req.PageCount * (wordsPerPageLow + wordsPerPageHigh) / 2,
		SectionList:  string(list),
		OutputFormat: format,
	}
	for _, k := range keys {
		data.Sections = append(data.Sections, sectionSpec{Name: k, Paragraphs: ParagraphRange(k)})
	}

	var buf bytes.Buffer
	if err := paperPromptTmpl.Execute(&buf, data); err != nil {
		return "", &BuildError{Err: err}
	}
	return buf.String(), nil
}

// ExpectedKeys returns the section keys the model must produce, in request
// order. The abstract is always required; it is prepended when the request
// does not name it.
func ExpectedKeys(req types.PaperRequest) []string {
	keys := make([]string, 0, len(req.Sections)+1)
	hasAbstract := false
	for _, s := range req.Sections {
		if types.IsAbstract(s) {
			hasAbstract = true
		}
	}
	if !hasAbstract {
		keys = append(keys, "Abstract")
	}
	return append(keys, req.Sections...)
}

// ParagraphRange gives the paragraph-count guidance for a section, keyed on
// common section names. Unknown sections get the general 3 to 6 range.
func ParagraphRange(section string) string {
	name := strings.ToLower(section)
	switch {
	case types.IsAbstract(section):
		return "exactly 1 long paragraph summarizing the entire paper"
	case strings.Contains(name, "introduction"):
		return "4 paragraphs"
	case strings.Contains(name, "literature") || strings.Contains(name, "related"):
		return "6 to 8 paragraphs, two to three times the length of the introduction"
	case strings.Contains(name, "method"):
		return "7 to 8 paragraphs, the longest section"
	case strings.Contains(name, "result") || strings.Contains(name, "experiment") || strings.Contains(name, "evaluation"):
		return "6 to 7 paragraphs"
	case strings.Contains(name, "conclusion"):
		return "4 paragraphs, about half the length of the introduction"
	default:
		return "3 to 6 paragraphs"
	}
}
