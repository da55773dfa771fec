package appraisal

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// BlockKind classifies one line of the narrative report.
type BlockKind string

const (
	BlockHeading        BlockKind = "heading"
	BlockSubheading     BlockKind = "subheading"
	BlockField          BlockKind = "field"
	BlockListItem       BlockKind = "list_item"
	BlockConclusion     BlockKind = "conclusion"
	BlockRecommendation BlockKind = "recommendation"
	BlockParagraph      BlockKind = "paragraph"
)

const (
	maxHeadingRunes = 40
	maxLabelRunes   = 35
)

var bulletPrefixes = []string{"- ", "* ", "• ", "· "}

// Block is one rendered unit of the report.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text"`
	Label string    `json:"label,omitempty"`
	Value string    `json:"value,omitempty"`
}

// Report is the structured form of a narrative report.
type Report struct {
	Blocks []Block `json:"blocks"`
}

// Empty reports whether the report has no blocks.
func (r Report) Empty() bool {
	return len(r.Blocks) == 0
}

// Field is a label/value pair lifted from the report.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Fields returns the label/value pairs in report order.
func (r Report) Fields() []Field {
	var out []Field
	for _, block := range r.Blocks {
		if block.Kind == BlockField {
			out = append(out, Field{Label: block.Label, Value: block.Value})
		}
	}
	return out
}

// FormatReport classifies each non-blank line of the cleaned report. The
// first matching rule wins: heading, bold subheading, bullet, field,
// conclusion, recommendation and finally paragraph. A line that splits into
// a label and a non-empty value is never promoted to a section heading.
func FormatReport(text string, loc *Locale) Report {
	if loc == nil {
		loc = LocaleFor(DefaultLanguage)
	}

	cleaned := CleanReport(text)
	if cleaned == "" {
		return Report{}
	}

	var report Report
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		report.Blocks = append(report.Blocks, classifyLine(line, loc))
	}
	return report
}

func classifyLine(line string, loc *Locale) Block {
	if strings.HasPrefix(line, "#") {
		return Block{Kind: BlockHeading, Text: stripEmphasis(strings.TrimLeft(line, "# "))}
	}
	label, value, isField := SplitField(line)
	if !(isField && value != "") && isSectionHeading(line, loc) {
		return Block{Kind: BlockHeading, Text: stripEmphasis(line)}
	}
	if len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**") {
		return Block{Kind: BlockSubheading, Text: strings.TrimSpace(line[2 : len(line)-2])}
	}
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(line, prefix) {
			return Block{Kind: BlockListItem, Text: strings.TrimSpace(strings.TrimPrefix(line, prefix))}
		}
	}
	if isField {
		return Block{Kind: BlockField, Text: line, Label: label, Value: value}
	}
	if containsFold(line, loc.ConclusionKeywords) {
		return Block{Kind: BlockConclusion, Text: line}
	}
	if containsFold(line, loc.RecommendationKeywords) {
		return Block{Kind: BlockRecommendation, Text: line}
	}
	return Block{Kind: BlockParagraph, Text: line}
}

// SplitField splits "label: value" lines. The label must be non-empty and
// shorter than 35 runes. Both ASCII and full-width colons are accepted.
func SplitField(line string) (string, string, bool) {
	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return "", "", false
	}
	label := strings.TrimSpace(stripEmphasis(line[:idx]))
	_, width := utf8.DecodeRuneInString(line[idx:])
	rest := line[idx+width:]
	if label == "" || utf8.RuneCountInString(label) >= maxLabelRunes || strings.HasPrefix(rest, "//") {
		return "", "", false
	}
	return label, strings.TrimSpace(stripEmphasis(rest)), true
}

func stripEmphasis(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*"))
}

// isSectionHeading reports whether a short line opens a report section,
// either with an ordinal marker or by naming a known section.
func isSectionHeading(line string, loc *Locale) bool {
	if utf8.RuneCountInString(line) > maxHeadingRunes {
		return false
	}
	if loc.SectionMarker != nil && loc.SectionMarker.MatchString(stripEmphasis(line)) {
		return true
	}
	return containsAny(line, loc.SectionKeywords)
}

func containsAny(line string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(line, keyword) {
			return true
		}
	}
	return false
}

func containsFold(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

type blockGroup struct {
	Kind   BlockKind
	Blocks []Block
}

// groupBlocks folds consecutive list items into a single group.
func groupBlocks(blocks []Block) []blockGroup {
	var groups []blockGroup
	for _, block := range blocks {
		n := len(groups)
		if block.Kind == BlockListItem && n > 0 && groups[n-1].Kind == BlockListItem {
			groups[n-1].Blocks = append(groups[n-1].Blocks, block)
			continue
		}
		groups = append(groups, blockGroup{Kind: block.Kind, Blocks: []Block{block}})
	}
	return groups
}

var reportTemplate = template.Must(template.New("report").Parse(`<article class="appraisal-report">
<header class="report-header"><h1>{{.Title}}</h1>{{if .Timestamp}}<p class="report-timestamp">{{.Timestamp}}</p>{{end}}</header>
<div class="report-body">
{{- range .Groups}}
{{- if eq .Kind "list_item"}}
<ul class="report-list">{{range .Blocks}}<li>{{.Text}}</li>{{end}}</ul>
{{- else}}{{range .Blocks}}
{{- if eq .Kind "heading"}}
<h2 class="report-heading">{{.Text}}</h2>
{{- else if eq .Kind "subheading"}}
<h3 class="report-subheading">{{.Text}}</h3>
{{- else if eq .Kind "field"}}
<div class="report-field"><div class="report-field-label">{{.Label}}</div><div class="report-field-value">{{.Value}}</div></div>
{{- else if eq .Kind "conclusion"}}
<div class="report-conclusion"><strong>{{$.ConclusionLabel}}</strong><p>{{.Text}}</p></div>
{{- else if eq .Kind "recommendation"}}
<div class="report-recommendation"><strong>{{$.RecommendationLabel}}</strong><p>{{.Text}}</p></div>
{{- else}}
<p class="report-paragraph">{{.Text}}</p>
{{- end}}{{end}}{{end}}
{{- end}}
</div>
<footer class="report-disclaimer"><p>{{.Disclaimer}}</p></footer>
</article>`))

var reportPolicy = newReportPolicy()

func newReportPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("article", "header", "footer", "section")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z0-9 _-]+$`)).Globally()
	return policy
}

// RenderHTML renders the report as sanitized HTML. An empty report renders
// as an empty string.
func RenderHTML(report Report, loc *Locale, timestamp string) (string, error) {
	if report.Empty() {
		return "", nil
	}
	if loc == nil {
		loc = LocaleFor(DefaultLanguage)
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Title               string
		Timestamp           string
		Groups              []blockGroup
		ConclusionLabel     string
		RecommendationLabel string
		Disclaimer          string
	}{
		Title:               loc.ReportTitle,
		Timestamp:           timestamp,
		Groups:              groupBlocks(report.Blocks),
		ConclusionLabel:     loc.ConclusionLabel,
		RecommendationLabel: loc.RecommendationLabel,
		Disclaimer:          loc.Disclaimer,
	})
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return reportPolicy.Sanitize(buf.String()), nil
}
