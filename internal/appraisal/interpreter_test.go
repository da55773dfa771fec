package appraisal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInterpretStrictJSONReturnsExactValues(t *testing.T) {
	raw := "以下是鉴定结果：\n```json\n" + `{
  "authenticity_score": 85,
  "category": "明代青花瓷",
  "period": "明朝永乐年间",
  "material": "高岭土胎体，钴蓝釉料",
  "brief_analysis": "釉色与胎体特征符合永乐官窑。",
  "detailed_report": "一、基础信息识别\n朝代：明朝永乐年间"
}` + "\n```"

	parsed := Interpret(raw, LocaleFor(LanguageChinese))

	require.True(t, parsed.IsStrict())
	require.Equal(t, ReasonNone, parsed.Reason)
	require.Equal(t, 85, parsed.Score)
	require.Equal(t, "明代青花瓷", parsed.Category)
	require.Equal(t, "明朝永乐年间", parsed.Period)
	require.Equal(t, "高岭土胎体，钴蓝釉料", parsed.Material)
	require.Equal(t, "釉色与胎体特征符合永乐官窑。", parsed.Brief)
	require.Equal(t, "一、基础信息识别\n朝代：明朝永乐年间", parsed.Report)
}

func TestInterpretClampsScore(t *testing.T) {
	cases := map[string]int{
		`{"authenticity_score": "137", "category": "c", "period": "p", "material": "m", "brief_analysis": "b", "detailed_report": "r"}`: 100,
		`{"authenticity_score": 137, "category": "c", "period": "p", "material": "m", "brief_analysis": "b", "detailed_report": "r"}`:   100,
		`{"authenticity_score": -12, "category": "c", "period": "p", "material": "m", "brief_analysis": "b", "detailed_report": "r"}`:   0,
		`{"authenticity_score": "72%", "category": "c", "period": "p", "material": "m", "brief_analysis": "b", "detailed_report": "r"}`: 72,
		`{"authenticity_score": 64.9, "category": "c", "period": "p", "material": "m", "brief_analysis": "b", "detailed_report": "r"}`:  64,
	}

	for raw, want := range cases {
		parsed := Interpret(raw, nil)
		require.True(t, parsed.IsStrict(), raw)
		require.Equal(t, want, parsed.Score, raw)
	}
}

func TestInterpretHandlesBracesInsideStrings(t *testing.T) {
	raw := `分析如下 {"authenticity_score": 40, "category": "玉器", "period": "清代", "material": "和田玉", "brief_analysis": "纹饰{存疑}", "detailed_report": "包含 } 和 { 的文字"} 以上`

	parsed := Interpret(raw, nil)

	require.True(t, parsed.IsStrict())
	require.Equal(t, 40, parsed.Score)
	require.Equal(t, "纹饰{存疑}", parsed.Brief)
	require.Equal(t, "包含 } 和 { 的文字", parsed.Report)
}

func TestInterpretSchemaMismatchFallsBackToKeyPatterns(t *testing.T) {
	raw := `{"authenticity_score": 66, "category": "青铜器", "period": "战国", "material": "青铜"}`

	parsed := Interpret(raw, nil)

	require.False(t, parsed.IsStrict())
	require.Equal(t, ReasonSchemaMismatch, parsed.Reason)
	require.Equal(t, 66, parsed.Score)
	require.Equal(t, "青铜器", parsed.Category)
	require.Equal(t, "战国", parsed.Period)
	require.Equal(t, "青铜", parsed.Material)
}

func TestInterpretInvalidJSON(t *testing.T) {
	parsed := Interpret(`{"authenticity_score": 90, "category": "瓷器",}`, nil)

	require.Equal(t, ParseFallback, parsed.Mode)
	require.Equal(t, ReasonInvalidJSON, parsed.Reason)
	require.Equal(t, 90, parsed.Score)
	require.Equal(t, "瓷器", parsed.Category)
}

func TestInterpretChineseProseUsesDefaults(t *testing.T) {
	loc := LocaleFor(LanguageChinese)
	raw := "这件器物整体保存较好，釉面光泽自然，值得收藏者关注。"

	parsed := Interpret(raw, loc)

	require.Equal(t, ParseFallback, parsed.Mode)
	require.Equal(t, ReasonNoJSONObject, parsed.Reason)
	require.Equal(t, DefaultScore, parsed.Score)
	require.Equal(t, loc.Defaults.Category, parsed.Category)
	require.Equal(t, loc.Defaults.Period, parsed.Period)
	require.Equal(t, loc.Defaults.Material, parsed.Material)
	require.Equal(t, loc.Defaults.Brief, parsed.Brief)
	require.Equal(t, raw, parsed.Report)
}

func TestInterpretEnglishProseUsesDefaults(t *testing.T) {
	loc := LocaleFor(LanguageEnglish)
	raw := "The photographs show a well preserved object with a pleasant surface."

	parsed := Interpret(raw, loc)

	require.Equal(t, ReasonNoJSONObject, parsed.Reason)
	require.Equal(t, DefaultScore, parsed.Score)
	require.Equal(t, "Antique object", parsed.Category)
	require.Equal(t, "Period undetermined", parsed.Period)
	require.Equal(t, "Materials under analysis", parsed.Material)
	require.Equal(t, "Further professional analysis required", parsed.Brief)
}

func TestInterpretChineseLabelledProse(t *testing.T) {
	raw := "综合判断：该瓷器有75%为真品的可能。\n类型：青花瓷\n朝代：明朝\n材质：高岭土"

	parsed := Interpret(raw, LocaleFor(LanguageChinese))

	require.Equal(t, ParseFallback, parsed.Mode)
	require.Equal(t, 75, parsed.Score)
	require.Equal(t, "青花瓷", parsed.Category)
	require.Equal(t, "明朝", parsed.Period)
	require.Equal(t, "高岭土", parsed.Material)
	require.Equal(t, "该瓷器有75%为真品的可能", parsed.Brief)
}

func TestInterpretFallbackScoreUsesLastMatch(t *testing.T) {
	raw := "初步看真品可能性：60%。复核细节后，真品可能性：80%。"

	parsed := Interpret(raw, nil)

	require.Equal(t, 80, parsed.Score)
}

func TestInterpretFallbackScoreClamps(t *testing.T) {
	parsed := Interpret("综合来看有180%为真品", nil)
	require.Equal(t, 100, parsed.Score)
}

func TestInterpretChineseSentenceBrief(t *testing.T) {
	raw := "器物来源不详。从胎釉结合和青花发色来看，这件器物为真品的可能性较大，值得进一步检测。其余细节略。"

	parsed := Interpret(raw, nil)

	require.Equal(t, "从胎釉结合和青花发色来看，这件器物为真品的可能性较大，值得进一步检测", parsed.Brief)
}

func TestInterpretEnglishLabelledProse(t *testing.T) {
	raw := "Category: Celadon bowl\nPeriod: Song dynasty\nMaterial: Stoneware\nAuthenticity score: 72/100"

	parsed := Interpret(raw, LocaleFor(LanguageEnglish))

	require.Equal(t, 72, parsed.Score)
	require.Equal(t, "Celadon bowl", parsed.Category)
	require.Equal(t, "Song dynasty", parsed.Period)
	require.Equal(t, "Stoneware", parsed.Material)
}

func TestInterpretEmptyCompletion(t *testing.T) {
	loc := LocaleFor(LanguageChinese)

	parsed := Interpret("   \n ", loc)

	require.Equal(t, ReasonEmptyCompletion, parsed.Reason)
	require.Equal(t, DefaultScore, parsed.Score)
	require.Equal(t, loc.Defaults.Report, parsed.Report)
}

func TestInterpretFallbackFieldsAlwaysPopulated(t *testing.T) {
	inputs := []string{
		"{",
		"}}}{{{",
		"```json\n```",
		`{"authenticity_score": null}`,
		"[1, 2, 3]",
		"score 9999999999999999999999%的可能性",
		"\"detailed_report\": \"",
	}

	for _, lang := range Languages() {
		loc := LocaleFor(lang)
		for _, raw := range inputs {
			parsed := Interpret(raw, loc)
			require.Equal(t, ParseFallback, parsed.Mode, raw)
			require.NotEmpty(t, parsed.Reason, raw)
			require.GreaterOrEqual(t, parsed.Score, MinScore, raw)
			require.LessOrEqual(t, parsed.Score, MaxScore, raw)
			require.NotEmpty(t, parsed.Category, raw)
			require.NotEmpty(t, parsed.Period, raw)
			require.NotEmpty(t, parsed.Material, raw)
			require.NotEmpty(t, parsed.Brief, raw)
			require.NotEmpty(t, parsed.Report, raw)
		}
	}
}

func TestCleanReport(t *testing.T) {
	raw := "```json\n第一行\\n\\n\\n第二行 \\\"引\\\"\n```"

	require.Equal(t, "第一行\n\n第二行 \"引\"", CleanReport(raw))
	require.Equal(t, "正文", CleanReport(`"detailed_report": "正文`))
	require.Equal(t, "", CleanReport("  "))
}
