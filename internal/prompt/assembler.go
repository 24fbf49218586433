package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"docqa/internal/domain"
)

// InsufficientInformation is the answer the model must give when the context
// does not contain one.
const InsufficientInformation = "I don't have enough information to answer the question."

// DefaultTemplate places the context before the question, fences both, and
// tells the model to answer only from the context.
const DefaultTemplate = `You will be provided with a question and a related context. Answer the question using only the context.

Context:
<context>
{{.Context}}
</context>

Question:
<question>
{{.Question}}
</question>

Make sure to answer the question only using the context provided. If the context doesn't contain the answer, then return: "{{.Sentinel}}"

Answer:`

type templateData struct {
	Context  string
	Question string
	Sentinel string
}

// Assembler renders retrieved records and a question into a grounded prompt.
type Assembler struct {
	tmpl *template.Template
}

// NewAssembler parses the default template.
func NewAssembler() *Assembler {
	return &Assembler{tmpl: template.Must(template.New("answer").Parse(DefaultTemplate))}
}

// NewAssemblerWithTemplate parses a custom template. It must render each of
// {{.Context}}, {{.Question}} and {{.Sentinel}}.
func NewAssemblerWithTemplate(text string) (*Assembler, error) {
	tmpl, err := template.New("answer").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", domain.ErrInvalidConfiguration, err)
	}
	if err := checkFields(tmpl); err != nil {
		return nil, err
	}
	return &Assembler{tmpl: tmpl}, nil
}

var fieldMarkers = templateData{
	Context:  "\x00context\x00",
	Question: "\x00question\x00",
	Sentinel: "\x00sentinel\x00",
}

// checkFields renders tmpl with marker values and fails if any marker is
// missing from the output.
func checkFields(tmpl *template.Template) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, fieldMarkers); err != nil {
		return fmt.Errorf("%w: prompt template: %v", domain.ErrInvalidConfiguration, err)
	}
	out := buf.String()
	for _, f := range []struct{ name, marker string }{
		{"Context", fieldMarkers.Context},
		{"Question", fieldMarkers.Question},
		{"Sentinel", fieldMarkers.Sentinel},
	} {
		if !strings.Contains(out, f.marker) {
			return fmt.Errorf("%w: prompt template must reference {{.%s}}", domain.ErrInvalidConfiguration, f.name)
		}
	}
	return nil
}

// BuildContext joins result data with newlines, in result order.
func BuildContext(results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Data
	}
	return strings.Join(parts, "\n")
}

// Assemble renders the prompt for query over results. An empty result set
// yields an empty context block.
func (a *Assembler) Assemble(query string, results []domain.SearchResult) (string, error) {
	var buf bytes.Buffer
	err := a.tmpl.Execute(&buf, templateData{
		Context:  BuildContext(results),
		Question: query,
		Sentinel: InsufficientInformation,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
