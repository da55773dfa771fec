package appraisal

import (
	_ "embed"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseMode tells whether the fields came from the model's JSON object or were
// salvaged from prose.
type ParseMode string

const (
	ParseStrict   ParseMode = "strict"
	ParseFallback ParseMode = "fallback"
)

// FallbackReason explains why strict parsing was abandoned.
type FallbackReason string

const (
	ReasonNone            FallbackReason = ""
	ReasonEmptyCompletion FallbackReason = "empty_completion"
	ReasonNoJSONObject    FallbackReason = "no_json_object"
	ReasonInvalidJSON     FallbackReason = "invalid_json"
	ReasonSchemaMismatch  FallbackReason = "schema_mismatch"
	ReasonInvalidScore    FallbackReason = "invalid_score"
)

// Fields are the six values every appraisal carries.
type Fields struct {
	Score    int    `json:"authenticity_score"`
	Category string `json:"category"`
	Period   string `json:"period"`
	Material string `json:"material"`
	Brief    string `json:"brief_analysis"`
	Report   string `json:"detailed_report"`
}

// ParsedFields is either a strict parse or a fallback parse with a reason.
type ParsedFields struct {
	Fields
	Mode   ParseMode      `json:"parse_mode"`
	Reason FallbackReason `json:"fallback_reason,omitempty"`
}

// IsStrict reports whether the fields came from a valid JSON object.
func (p ParsedFields) IsStrict() bool {
	return p.Mode == ParseStrict
}

//go:embed schema/completion.schema.json
var completionSchemaJSON string

var completionSchema = jsonschema.MustCompileString("completion.schema.json", completionSchemaJSON)

// maxCandidates bounds how many brace spans are tried per completion.
const maxCandidates = 32

var (
	fencePattern       = regexp.MustCompile("```(?:json|JSON)?")
	reportKeyPattern   = regexp.MustCompile(`"detailed_report":\s*"`)
	blankLinesPattern  = regexp.MustCompile(`\n\s*\n`)
	scoreKeyPattern    = regexp.MustCompile(`"authenticity_score"\s*:\s*"?(-?\d+)`)
	categoryKeyPattern = stringKeyPattern("category")
	periodKeyPattern   = stringKeyPattern("period")
	materialKeyPattern = stringKeyPattern("material")
	briefKeyPattern    = stringKeyPattern("brief_analysis")
)

func stringKeyPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`"` + key + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

// Interpret turns a raw completion into the six fields. It never fails: when
// no valid JSON object is present every field is recovered independently or
// defaulted.
func Interpret(raw string, loc *Locale) ParsedFields {
	if loc == nil {
		loc = LocaleFor(DefaultLanguage)
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return ParsedFields{
			Fields: Fields{
				Score:    DefaultScore,
				Category: loc.Defaults.Category,
				Period:   loc.Defaults.Period,
				Material: loc.Defaults.Material,
				Brief:    loc.Defaults.Brief,
				Report:   loc.Defaults.Report,
			},
			Mode:   ParseFallback,
			Reason: ReasonEmptyCompletion,
		}
	}

	fields, reason := parseStrict(text)
	if reason == ReasonNone {
		return ParsedFields{Fields: fields, Mode: ParseStrict}
	}

	return ParsedFields{Fields: parseFallback(text, loc), Mode: ParseFallback, Reason: reason}
}

func parseStrict(text string) (Fields, FallbackReason) {
	candidates := jsonCandidates(fencePattern.ReplaceAllString(text, ""))
	if len(candidates) == 0 {
		return Fields{}, ReasonNoJSONObject
	}

	reason := ReasonInvalidJSON
	for _, candidate := range candidates {
		var doc any
		dec := json.NewDecoder(strings.NewReader(candidate))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			continue
		}
		obj, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if err := completionSchema.Validate(obj); err != nil {
			reason = ReasonSchemaMismatch
			continue
		}
		score, ok := scoreValue(obj["authenticity_score"])
		if !ok {
			reason = ReasonInvalidScore
			continue
		}
		return Fields{
			Score:    ClampScore(score),
			Category: obj["category"].(string),
			Period:   obj["period"].(string),
			Material: obj["material"].(string),
			Brief:    obj["brief_analysis"].(string),
			Report:   CleanReport(obj["detailed_report"].(string)),
		}, ReasonNone
	}
	return Fields{}, reason
}

// jsonCandidates returns balanced brace spans, those mentioning
// authenticity_score first.
func jsonCandidates(text string) []string {
	var preferred, others []string
	for i := 0; i < len(text) && len(preferred)+len(others) < maxCandidates; i++ {
		if text[i] != '{' {
			continue
		}
		end := matchingBrace(text, i)
		if end < 0 {
			continue
		}
		span := text[i : end+1]
		if strings.Contains(span, `"authenticity_score"`) {
			preferred = append(preferred, span)
		} else {
			others = append(others, span)
		}
	}
	return append(preferred, others...)
}

// matchingBrace finds the brace closing the one at start, ignoring braces
// inside JSON strings. It returns -1 when the span never closes.
func matchingBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func scoreValue(v any) (int, bool) {
	var raw string
	switch value := v.(type) {
	case json.Number:
		raw = value.String()
	case string:
		raw = strings.TrimSuffix(strings.TrimSpace(value), "%")
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 {
		return MaxScore, true
	}
	if f < math.MinInt32 {
		return MinScore, true
	}
	return int(f), true
}

func parseFallback(text string, loc *Locale) Fields {
	report := CleanReport(text)
	if report == "" {
		report = loc.Defaults.Report
	}
	return Fields{
		Score:    fallbackScore(text, loc),
		Category: firstMatch(text, categoryKeyPattern, loc.patterns.category, loc.Defaults.Category),
		Period:   firstMatch(text, periodKeyPattern, loc.patterns.period, loc.Defaults.Period),
		Material: firstMatch(text, materialKeyPattern, loc.patterns.material, loc.Defaults.Material),
		Brief:    fallbackBrief(text, loc),
		Report:   report,
	}
}

// fallbackScore prefers the JSON key, then each locale pattern in order using
// its last occurrence.
func fallbackScore(text string, loc *Locale) int {
	if m := scoreKeyPattern.FindStringSubmatch(text); m != nil {
		if score, ok := atoiClamped(m[1]); ok {
			return score
		}
	}
	for _, pattern := range loc.patterns.score {
		matches := pattern.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		if score, ok := atoiClamped(matches[len(matches)-1][1]); ok {
			return score
		}
	}
	return DefaultScore
}

func atoiClamped(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err == nil {
		return ClampScore(n), true
	}
	// Digit runs too long for an int still sit outside the range.
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		if strings.HasPrefix(s, "-") {
			return MinScore, true
		}
		return MaxScore, true
	}
	return 0, false
}

func firstMatch(text string, key *regexp.Regexp, patterns []*regexp.Regexp, fallback string) string {
	if m := key.FindStringSubmatch(text); m != nil {
		if value := strings.TrimSpace(unescapeJSON(m[1])); value != "" {
			return value
		}
	}
	for _, pattern := range patterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if value := strings.TrimSpace(m[1]); value != "" {
			return value
		}
	}
	return fallback
}

func fallbackBrief(text string, loc *Locale) string {
	brief := firstMatch(text, briefKeyPattern, loc.patterns.brief, "")
	if brief != "" {
		return brief
	}
	if loc.patterns.sentence != nil {
		for _, sentence := range loc.patterns.sentence.Split(text, -1) {
			sentence = strings.TrimSpace(sentence)
			if utf8.RuneCountInString(sentence) <= loc.patterns.minRunes {
				continue
			}
			lower := strings.ToLower(sentence)
			for _, keyword := range loc.patterns.keywords {
				if strings.Contains(lower, strings.ToLower(keyword)) {
					return sentence
				}
			}
		}
	}
	return loc.Defaults.Brief
}

func unescapeJSON(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}

// CleanReport removes the JSON and markdown artifacts a model leaves around
// narrative text.
func CleanReport(text string) string {
	text = reportKeyPattern.ReplaceAllString(text, "")
	text = fencePattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\"`, `"`)
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLinesPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
