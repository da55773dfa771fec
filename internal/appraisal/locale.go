package appraisal

import (
	"regexp"
	"strings"
)

// Language selects the locale used for the prompt, the fallback parser and
// the report formatter.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

// DefaultLanguage matches the audience the service was first written for.
const DefaultLanguage = LanguageChinese

// ParseLanguage maps loose user input ("zh-CN", "English", "") onto a
// supported language.
func ParseLanguage(value string) Language {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return DefaultLanguage
	case strings.HasPrefix(v, "en"):
		return LanguageEnglish
	case strings.HasPrefix(v, "zh"), v == "cn", v == "chinese", v == "中文":
		return LanguageChinese
	default:
		return DefaultLanguage
	}
}

// Defaults are the field values used when nothing can be recovered.
type Defaults struct {
	Category string
	Period   string
	Material string
	Brief    string
	Report   string
}

// Messages are the user-facing failure messages.
type Messages struct {
	NoImages       string
	NoUsableImages string
	InvalidRequest string
	ModelFailure   string
}

// PromptText holds every localized string of the prompt template.
type PromptText struct {
	Role              string
	JSONNotice        string
	PrinciplesTitle   string
	Principles        []string
	FrameworkTitle    string
	Framework         []string
	SchemaTitle       string
	Example           completionExample
	FieldGuideTitle   string
	FieldGuide        []string
	RequirementsTitle string
	Requirements      []string

	ReferenceHeader  string
	ReferenceFooter  string
	TitleLabel       string
	PeriodLabel      string
	MaterialLabel    string
	ProvenanceLabel  string
	DescriptionLabel string
	Task             string
	AnalysisTitle    string
	AnalysisRules    []string
	OutputTitle      string
	OutputRules      []string
	Closing          string
}

type fallbackPatterns struct {
	score    []*regexp.Regexp
	category []*regexp.Regexp
	period   []*regexp.Regexp
	material []*regexp.Regexp
	brief    []*regexp.Regexp
	sentence *regexp.Regexp
	keywords []string
	minRunes int
}

// Locale is the language pack that parameterizes the single prompt template,
// the fallback parser and the report formatter.
type Locale struct {
	Language Language
	Prompt   PromptText
	Defaults Defaults
	Messages Messages

	BandLabels    map[Band]string
	ProceedAdvice []string
	CautionAdvice []string

	// SectionMarker matches ordinal heading prefixes at the start of a line.
	SectionMarker          *regexp.Regexp
	SectionKeywords        []string
	ConclusionKeywords     []string
	RecommendationKeywords []string

	ReportTitle         string
	ConclusionLabel     string
	RecommendationLabel string
	Disclaimer          string

	patterns fallbackPatterns
}

var locales = map[Language]*Locale{
	LanguageChinese: chineseLocale(),
	LanguageEnglish: englishLocale(),
}

// LocaleFor returns the locale for the language, falling back to the default.
func LocaleFor(language Language) *Locale {
	if loc, ok := locales[language]; ok {
		return loc
	}
	return locales[DefaultLanguage]
}

// Languages lists the supported languages.
func Languages() []Language {
	return []Language{LanguageChinese, LanguageEnglish}
}

func mustPatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}
