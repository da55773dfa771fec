package appraisal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// completionExample is the object shape the model is asked to return.
type completionExample struct {
	AuthenticityScore int    `json:"authenticity_score"`
	Category          string `json:"category"`
	Period            string `json:"period"`
	Material          string `json:"material"`
	BriefAnalysis     string `json:"brief_analysis"`
	DetailedReport    string `json:"detailed_report"`
}

var promptFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

var systemTemplate = template.Must(template.New("system").Funcs(promptFuncs).Parse(
	`{{.Text.Role}}

{{.Text.JSONNotice}}

{{.Text.PrinciplesTitle}}
{{range $i, $p := .Text.Principles}}{{inc $i}}. {{$p}}
{{end}}
{{.Text.FrameworkTitle}}
{{range $i, $p := .Text.Framework}}{{inc $i}}. {{$p}}
{{end}}
{{.Text.SchemaTitle}}
` + "```json" + `
{{.Example}}
` + "```" + `

{{.Text.FieldGuideTitle}}
{{range .Text.FieldGuide}}- {{.}}
{{end}}
{{.Text.RequirementsTitle}}
{{range $i, $p := .Text.Requirements}}{{inc $i}}. {{$p}}
{{end}}`))

var userTemplate = template.Must(template.New("user").Funcs(promptFuncs).Parse(
	`{{if .HasReference}}{{.Text.ReferenceHeader}}
{{if .Title}}{{.Text.TitleLabel}}: {{.Title}}
{{end}}{{if .Period}}{{.Text.PeriodLabel}}: {{.Period}}
{{end}}{{if .Material}}{{.Text.MaterialLabel}}: {{.Material}}
{{end}}{{if .Provenance}}{{.Text.ProvenanceLabel}}: {{.Provenance}}
{{end}}{{if .Descriptions}}{{.Text.DescriptionLabel}}:
{{range .Descriptions}}{{.}}
{{end}}{{end}}
{{.Text.ReferenceFooter}}

{{end}}{{.Text.Task}}

{{.Text.AnalysisTitle}}
{{range $i, $p := .Text.AnalysisRules}}{{inc $i}}. {{$p}}
{{end}}
{{.Text.OutputTitle}}
{{range .Text.OutputRules}}- {{.}}
{{end}}
{{.Text.Closing}}`))

type userPromptData struct {
	Text         PromptText
	HasReference bool
	Title        string
	Period       string
	Material     string
	Provenance   string
	Descriptions []string
}

// SystemPrompt renders the instruction block for the locale.
func SystemPrompt(loc *Locale) (string, error) {
	var example bytes.Buffer
	enc := json.NewEncoder(&example)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(loc.Prompt.Example); err != nil {
		return "", fmt.Errorf("encode prompt example: %w", err)
	}

	var buf bytes.Buffer
	err := systemTemplate.Execute(&buf, struct {
		Text    PromptText
		Example string
	}{Text: loc.Prompt, Example: strings.TrimSpace(example.String())})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// UserPrompt renders the text segment that precedes the images. Reference
// fields are included only when non-blank.
func UserPrompt(loc *Locale, req Request, descriptions []string) (string, error) {
	data := userPromptData{
		Text:         loc.Prompt,
		Title:        strings.TrimSpace(req.Title),
		Period:       strings.TrimSpace(req.Period),
		Material:     strings.TrimSpace(req.Material),
		Provenance:   strings.TrimSpace(req.Provenance),
		Descriptions: descriptions,
	}
	data.HasReference = data.Title != "" || data.Period != "" || data.Material != "" ||
		data.Provenance != "" || len(descriptions) > 0

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render user prompt: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
