package web

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/dto"
)

// ErrUnknownExample is returned when a demo example id does not exist.
var ErrUnknownExample = errors.New("unknown example")

// FormState holds the values of the appraisal form as the user last saw them.
type FormState struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Period      string `json:"period" form:"period"`
	Material    string `json:"material" form:"material"`
	Provenance  string `json:"provenance" form:"provenance"`
	Language    string `json:"language" form:"language"`
	// ImageURLs is newline separated, one http(s) URL or data URI per line.
	ImageURLs   string `json:"image_urls" form:"image_urls"`
}

// ImageURLList splits ImageURLs into non-blank entries.
func (f FormState) ImageURLList() []string {
	lines := strings.FieldsFunc(f.ImageURLs, func(r rune) bool { return r == '\n' || r == '\r' })
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ToRequest converts the form into an appraisal request.
func (f FormState) ToRequest() dto.AppraisalRequest {
	return dto.AppraisalRequest{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Period:      strings.TrimSpace(f.Period),
		Material:    strings.TrimSpace(f.Material),
		Provenance:  strings.TrimSpace(f.Provenance),
		Language:    string(appraisal.ParseLanguage(f.Language)),
		ImageURLs:   f.ImageURLList(),
	}
}

// ViewModel is the whole state of the page. Handlers build a fresh one per
// request and pass it to Render; nothing is kept between requests.
type ViewModel struct {
	Language  appraisal.Language     `json:"language"`
	Form      FormState              `json:"form"`
	ExampleID string                 `json:"example_id,omitempty"`
	Examples  []Example              `json:"examples"`
	Result    *dto.AppraisalResponse `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Text      PageText               `json:"-"`
	Locale    *appraisal.Locale      `json:"-"`
}

// NewViewModel returns an empty form in the given language.
func NewViewModel(language string) ViewModel {
	lang := appraisal.ParseLanguage(language)
	return ViewModel{
		Language: lang,
		Form:     FormState{Language: string(lang)},
		Examples: Examples(),
		Text:     pageTextFor(lang),
		Locale:   appraisal.LocaleFor(lang),
	}
}

// LoadExample pre-fills the form with a demo example.
func (vm *ViewModel) LoadExample(id string) error {
	example, ok := FindExample(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownExample, id)
	}
	vm.ExampleID = example.ID
	vm.Form = FormState{
		Title:       example.Title,
		Description: example.Description,
		Period:      example.Period,
		Material:    example.Material,
		Provenance:  example.Provenance,
		Language:    string(vm.Language),
	}
	return nil
}

// WithResult attaches an appraisal outcome. Failed outcomes surface their
// localized error message.
func (vm *ViewModel) WithResult(resp dto.AppraisalResponse) {
	vm.Result = &resp
	if !resp.Success {
		vm.Error = resp.Error
	}
}

// HasReport reports whether a successful result is attached.
func (vm ViewModel) HasReport() bool {
	return vm.Result != nil && vm.Result.Success
}

// ReportMarkup returns the already sanitized report HTML.
func (vm ViewModel) ReportMarkup() template.HTML {
	if vm.Result == nil {
		return ""
	}
	return template.HTML(vm.Result.ReportHTML)
}

// ScoreStyle returns the inline style of the score bar.
func (vm ViewModel) ScoreStyle() template.CSS {
	if vm.Result == nil {
		return ""
	}
	score := appraisal.ClampScore(vm.Result.Score)
	return template.CSS(fmt.Sprintf("width: %d%%; background-color: %s;", score, appraisal.ScoreColor(score)))
}
