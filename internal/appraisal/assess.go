package appraisal

// Assessment is the display-ready outcome of one completion.
type Assessment struct {
	ParsedFields
	Report          Report
	Band            Band
	BandLabel       string
	Recommendations []string
	ScoreColor      string
}

// Assess interprets a raw completion and derives everything the result view
// needs from it.
func Assess(raw string, loc *Locale) Assessment {
	if loc == nil {
		loc = LocaleFor(DefaultLanguage)
	}
	parsed := Interpret(raw, loc)
	band := BandFor(parsed.Score)
	return Assessment{
		ParsedFields:    parsed,
		Report:          FormatReport(parsed.Report, loc),
		Band:            band,
		BandLabel:       loc.Label(band),
		Recommendations: loc.Recommendations(parsed.Score),
		ScoreColor:      ScoreColor(parsed.Score),
	}
}
