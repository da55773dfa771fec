package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").ParseFS(templateFS, "templates/index.html"))

// PageText holds the static page copy for one language.
type PageText struct {
	Title            string
	Subtitle         string
	ImagesLabel      string
	ImageURLsLabel   string
	TitleLabel       string
	DescriptionLabel string
	PeriodLabel      string
	MaterialLabel    string
	ProvenanceLabel  string
	LanguageLabel    string
	Submit           string
	Reset            string
	ExamplesHeading  string
	ScoreLabel       string
	CategoryLabel    string
	BriefLabel       string
	ImagesUsedLabel  string
	SkippedLabel     string
}

var pageTexts = map[appraisal.Language]PageText{
	appraisal.LanguageChinese: {
		Title:            "AI古董鉴定专家",
		Subtitle:         "上传古董照片，获取真伪评估与专业分析报告",
		ImagesLabel:      "古董图片（可多选，JPG、PNG、WEBP）",
		ImageURLsLabel:   "图片链接（每行一个，可选）",
		TitleLabel:       "古董名称/标题（可选）",
		DescriptionLabel: "古董描述信息（可选）",
		PeriodLabel:      "估计年代",
		MaterialLabel:    "估计材质",
		ProvenanceLabel:  "获得方式",
		LanguageLabel:    "报告语言",
		Submit:           "开始古董鉴定",
		Reset:            "清空表单",
		ExamplesHeading:  "示例",
		ScoreLabel:       "真品可能性",
		CategoryLabel:    "类别",
		BriefLabel:       "简要分析",
		ImagesUsedLabel:  "已分析图片",
		SkippedLabel:     "已跳过",
	},
	appraisal.LanguageEnglish: {
		Title:            "AI Antique Appraiser",
		Subtitle:         "Upload photographs of an antique to receive an authenticity assessment and a detailed report",
		ImagesLabel:      "Photographs (multiple, JPG, PNG, WEBP)",
		ImageURLsLabel:   "Image URLs (one per line, optional)",
		TitleLabel:       "Title (optional)",
		DescriptionLabel: "Description (optional)",
		PeriodLabel:      "Estimated period",
		MaterialLabel:    "Estimated material",
		ProvenanceLabel:  "Provenance",
		LanguageLabel:    "Report language",
		Submit:           "Start appraisal",
		Reset:            "Reset form",
		ExamplesHeading:  "Examples",
		ScoreLabel:       "Authenticity",
		CategoryLabel:    "Category",
		BriefLabel:       "Summary",
		ImagesUsedLabel:  "Images analysed",
		SkippedLabel:     "Skipped",
	},
}

func pageTextFor(language appraisal.Language) PageText {
	if text, ok := pageTexts[language]; ok {
		return text
	}
	return pageTexts[appraisal.LanguageChinese]
}

// Render writes the page for vm.
func Render(w io.Writer, vm ViewModel) error {
	if vm.Locale == nil {
		vm.Locale = appraisal.LocaleFor(vm.Language)
	}
	if vm.Text.Title == "" {
		vm.Text = pageTextFor(vm.Locale.Language)
	}
	if vm.Examples == nil {
		vm.Examples = Examples()
	}
	if err := pageTemplate.Execute(w, vm); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
