package appraisal

import "regexp"

func englishLocale() *Locale {
	return &Locale{
		Language: LanguageEnglish,
		Prompt: PromptText{
			Role:            "You are a world-class antique appraiser with deep knowledge of cultural relics and decades of hands-on experience. You know the characteristics, workmanship, materials and market conditions of objects from every historical period. Apply that expertise with rigorous reasoning.",
			JSONNotice:      "**Important: you must return the analysis as JSON, accurate and internally consistent.**",
			PrinciplesTitle: "**Key principle: images first**",
			Principles: []string{
				"Images are the primary evidence: the analysis must rest on what the photos show",
				"Text is reference only: the title, description, period, material and provenance supplied by the user are background and must not be taken at face value",
				"Cross-check: compare the user's description with your visual observations and point out agreements or contradictions",
				"Judge independently: when the description and the images disagree, keep the judgement grounded in the visual evidence",
			},
			FrameworkTitle: "**Analysis framework:**",
			Framework: []string{
				"Basic identification: period or dynasty, object type, material (mainly from the images, with user hints as reference)",
				"Craftsmanship: manufacturing technique, technical traits, close observation of details (images only)",
				"Authenticity judgement: period consistency, material plausibility, stylistic comparison, signs of modern work",
				"Market value: historical value, artistic value, market conditions",
			},
			SchemaTitle: "**Required JSON format:**",
			Example: completionExample{
				AuthenticityScore: 85,
				Category:          "Ming dynasty blue-and-white porcelain",
				Period:            "Ming dynasty, Yongle reign",
				Material:          "Kaolin body with cobalt blue glaze",
				BriefAnalysis:     "A two or three sentence summary of the judgement based on the images",
				DetailedReport:    "The full professional report, centred on visual evidence and comparing it with the user's information where relevant",
			},
			FieldGuideTitle: "**Fields:**",
			FieldGuide: []string{
				"authenticity_score: integer from 0 to 100 giving the likelihood the object is genuine",
				"category: object type, based on the images",
				"period: historical period or dynasty, based on workmanship and style",
				"material: main materials and technique, based on the images",
				"brief_analysis: two or three sentence summary of the judgement",
				"detailed_report: detailed professional report (400 to 700 words)",
			},
			RequirementsTitle: "**Requirements:**",
			Requirements: []string{
				"authenticity_score must agree with the conclusion of detailed_report",
				"Every statement needs concrete visual evidence",
				"If the user's description contradicts the images, say so and explain why",
				"Return valid JSON with every string in double quotes",
				"Encode line breaks as \\n and quotes as \\\"",
			},
			ReferenceHeader:  "**Reference information from the user (for context only, not evidence):**",
			ReferenceFooter:  "**Reminder: the information above is for reference only. Base the appraisal on the images.**",
			TitleLabel:       "Title",
			PeriodLabel:      "Estimated period",
			MaterialLabel:    "Estimated material",
			ProvenanceLabel:  "Provenance",
			DescriptionLabel: "Description",
			Task:             "**Task: professional antique appraisal**\nAppraise the antique shown in these images systematically.",
			AnalysisTitle:    "**Analysis requirements:**",
			AnalysisRules: []string{
				"Reason step by step through the framework",
				"Support every judgement with visual evidence or established knowledge",
				"Cross-check workmanship, material, style and historical context",
				"Actively look for problems or points of dispute",
				"Compare the visual findings with the user's reference information",
			},
			OutputTitle: "**Output requirements:**",
			OutputRules: []string{
				"Return only the JSON object with no surrounding text",
				"authenticity_score must reflect the image-based judgement",
				"Write the analysis in English with precise terminology",
				"In detailed_report keep visual findings apart from the comparison with the user's information",
			},
			Closing: "Make sure authenticity_score matches the conclusion of detailed_report and return the JSON result directly.",
		},
		Defaults: Defaults{
			Category: "Antique object",
			Period:   "Period undetermined",
			Material: "Materials under analysis",
			Brief:    "Further professional analysis required",
			Report:   "Report is being generated...",
		},
		Messages: Messages{
			NoImages:       "Please upload at least one image to appraise",
			NoUsableImages: "None of the uploaded images could be processed, please check the image format",
			InvalidRequest: "The submitted information is invalid",
			ModelFailure:   "The appraisal failed, please check the API key or try again later",
		},
		BandLabels: map[Band]string{
			BandHigh:    "High confidence: the object is likely genuine",
			BandMedium:  "Medium confidence: further professional appraisal needed",
			BandLow:     "Low confidence: there are doubts, proceed with caution",
			BandVeryLow: "Very low confidence: likely a reproduction or modern piece",
		},
		ProceedAdvice: []string{
			"Consider a physical examination to confirm",
			"Consult relevant historical literature",
			"Ask a museum or accredited appraisal institution",
			"Photograph more details for the record",
		},
		CautionAdvice: []string{
			"A physical appraisal by a professional is strongly advised",
			"Examine workmanship and material details closely",
			"Compare with authenticated pieces of the same period",
			"Verify through several sources before any transaction",
		},
		SectionMarker: regexp.MustCompile(`^(?:\d{1,2}[.)]|[IVX]{1,4}\.)\s`),
		SectionKeywords: []string{
			"Basic information", "Basic identification", "Craftsmanship", "Authenticity",
			"Market value", "Summary", "Conclusion and summary",
		},
		ConclusionKeywords:     []string{"Conclusion", "Likelihood of authenticity", "Overall judgement", "Overall judgment"},
		RecommendationKeywords: []string{"Recommendation", "Recommend", "Suggestion", "Precautions"},
		ReportTitle:            "Antique Appraisal Report",
		ConclusionLabel:        "Conclusion",
		RecommendationLabel:    "Recommendation",
		Disclaimer:             "This report was generated by AI analysis and is for reference only. A final verdict requires physical examination; consult an accredited antique appraisal institution.",
		patterns: fallbackPatterns{
			score: mustPatterns(
				`(?i)authenticity(?:\s+score)?[：:\s]*(\d+)`,
				`(?i)(\d+)%\s+(?:likely|likelihood|probability|chance)\b[^.\n]*genuine`,
				`(?i)(?:likelihood|probability) of (?:being )?(?:genuine|authentic(?:ity)?)[：:\s]*(?:is\s+)?(?:about\s+|around\s+)?(\d+)%`,
				`(?i)authenticity_score[：:\s]*(\d+)`,
				`(?i)score[：:\s]*(\d+)\s*(?:/\s*100|%)`,
			),
			category: mustPatterns(
				`(?i)(?:category|object type|type)[ \t]*[:：][ \t]*([^,.\n]+)`,
				`(?i)\bis an? ([^,.\n]*(?:vase|porcelain|jade|bronze|painting|calligraphy|furniture|pottery|ceramic)[^,.\n]*)`,
			),
			period: mustPatterns(
				`(?i)(?:period|dynasty|era|date)[ \t]*[:：][ \t]*([^,.\n]+)`,
				`(?i)\b((?:(?:early|mid|late)[- ])?\d{1,2}(?:st|nd|rd|th)[- ]century\b[^,.\n]*)`,
				`(?i)\b((?:tang|song|yuan|ming|qing|han|edo|meiji|joseon|goryeo)\s+(?:dynasty|period|era)[^,.\n]*)`,
			),
			material: mustPatterns(
				`(?i)materials?[ \t]*[:：][ \t]*([^,.\n]+)`,
				`(?i)\bmade (?:of|from) ([^,.\n]+)`,
			),
			brief: mustPatterns(
				`(?i)(?:brief analysis|summary)[ \t]*[:：][ \t]*([^.\n]+)\.`,
				`(?i)overall judg(?:e)?ment[ \t]*[:：][ \t]*([^.\n]+)\.`,
			),
			sentence: regexp.MustCompile(`[.!?]\s`),
			keywords: []string{"genuine", "authentic", "reproduction", "likely", "judg", "analysis"},
			minRunes: 40,
		},
	}
}
