package appraisal

import "regexp"

func chineseLocale() *Locale {
	return &Locale{
		Language: LanguageChinese,
		Prompt: PromptText{
			Role:            "你是一位世界级的古董鉴定专家，拥有深厚的文物鉴定知识和数十年的实战经验，熟悉各个历史时期的器物特征、制作工艺、材料特点和市场行情。请运用专业知识和严密的逻辑推理进行深度分析。",
			JSONNotice:      "**重要：你必须以JSON格式返回分析结果，确保数据准确、前后一致。**",
			PrinciplesTitle: "**关键原则：图像优先分析法**",
			Principles: []string{
				"图像是鉴定的主要依据：分析必须主要基于图像中的视觉证据",
				"文字信息仅作参考：用户提供的标题、描述、年代、材质、来源等信息只能作为背景参考，不能直接采信",
				"交叉验证是关键：将用户描述与图像观察进行对比，指出一致或矛盾之处",
				"独立判断：即使用户描述与视觉分析不符，也要坚持基于图像证据的专业判断",
			},
			FrameworkTitle: "**分析框架：**",
			Framework: []string{
				"基础信息识别：朝代/时期、类型分类、材质分析（主要基于图像，参考用户信息）",
				"工艺技术分析：制作工艺、技术特点、细节观察（完全基于图像）",
				"真伪综合判断：时代一致性、材料可信度、风格对比、现代痕迹",
				"市场价值评估：历史价值、艺术价值、市场行情",
			},
			SchemaTitle: "**必须返回的JSON格式：**",
			Example: completionExample{
				AuthenticityScore: 85,
				Category:          "明代青花瓷",
				Period:            "明朝永乐年间",
				Material:          "高岭土胎体，钴蓝釉料",
				BriefAnalysis:     "基于图像分析的核心判断总结",
				DetailedReport:    "完整的专业鉴定报告，重点阐述图像证据，适当引用用户信息进行对比验证",
			},
			FieldGuideTitle: "**字段说明：**",
			FieldGuide: []string{
				"authenticity_score: 0-100的整数，表示真品可能性",
				"category: 文物类型 - 基于图像观察",
				"period: 历史时期/朝代 - 基于工艺风格判断",
				"material: 主要材质和工艺 - 基于图像观察",
				"brief_analysis: 2-3句话的核心判断总结",
				"detailed_report: 详细的专业分析报告（500-800字）",
			},
			RequirementsTitle: "**重要要求：**",
			Requirements: []string{
				"authenticity_score必须与detailed_report中的结论完全一致",
				"所有分析都要有具体的视觉证据支撑",
				"如果用户描述与图像分析有矛盾，要明确指出并解释原因",
				"确保JSON格式正确，所有字符串都要用双引号",
				"文本中的换行用\\n表示，引号用\\\"转义",
			},
			ReferenceHeader:  "**用户提供的参考信息（仅供参考，不作为鉴定依据）：**",
			ReferenceFooter:  "**重要提醒：以上信息仅供参考，请主要基于图像进行独立分析判断**",
			TitleLabel:       "物品标题",
			PeriodLabel:      "估计年代",
			MaterialLabel:    "估计材质",
			ProvenanceLabel:  "来源/获得方式",
			DescriptionLabel: "用户描述",
			Task:             "**任务：古董专业鉴定分析**\n请对这些图片中展示的古董进行系统性鉴定。",
			AnalysisTitle:    "**分析要求：**",
			AnalysisRules: []string{
				"逐步推理：按照既定的分析框架，逐步展开每个环节的分析",
				"证据导向：每个判断都要有具体的视觉证据或理论依据支撑",
				"多角度验证：从工艺、材料、风格、历史背景等多个维度交叉验证",
				"疑点识别：主动发现并分析可能存在的问题或争议点",
				"信息对比：将图像观察结果与用户提供的参考信息进行专业对比",
			},
			OutputTitle: "**输出格式要求：**",
			OutputRules: []string{
				"必须严格按照JSON格式返回，不要添加任何其他文本",
				"authenticity_score必须准确反映基于图像分析的专业判断",
				"使用中文进行分析，专业术语要准确",
				"在detailed_report中明确区分图像观察结果和与用户信息的对比分析",
			},
			Closing: "请确保authenticity_score与detailed_report中的结论完全一致，直接返回JSON格式的结果。",
		},
		Defaults: Defaults{
			Category: "古董文物",
			Period:   "年代待定",
			Material: "材质分析中",
			Brief:    "需要进一步专业分析",
			Report:   "分析报告生成中...",
		},
		Messages: Messages{
			NoImages:       "请上传图片进行鉴定",
			NoUsableImages: "无法处理上传的图片，请检查图片格式",
			InvalidRequest: "提交的信息不符合要求",
			ModelFailure:   "鉴定过程中发生错误，请检查API密钥是否正确，或稍后重试",
		},
		BandLabels: map[Band]string{
			BandHigh:    "高可信度：这件古董很可能是真品",
			BandMedium:  "中等可信度：需要进一步专业鉴定",
			BandLow:     "较低可信度：存在疑点，建议谨慎",
			BandVeryLow: "低可信度：可能是仿制品或现代制品",
		},
		ProceedAdvice: []string{
			"可考虑进行实物检测确认",
			"查阅相关历史文献资料",
			"咨询博物馆或权威鉴定机构",
			"拍摄更多细节照片建档",
		},
		CautionAdvice: []string{
			"强烈建议实物专业鉴定",
			"重点检查工艺和材质细节",
			"研究同时期真品对比资料",
			"如用于交易需多方验证",
		},
		SectionMarker: regexp.MustCompile(`^(?:[一二三四五六七八九十]{1,3}、|第[一二三四五六七八九十]{1,3}(?:部分|节|章|、))`),
		SectionKeywords: []string{
			"基础信息", "工艺技术", "真伪判断", "真伪综合判断", "市场价值", "总结",
		},
		ConclusionKeywords:     []string{"结论", "真品可能性", "综合判断"},
		RecommendationKeywords: []string{"建议", "注意事项"},
		ReportTitle:            "古董文物鉴定报告",
		ConclusionLabel:        "鉴定结论",
		RecommendationLabel:    "专业建议",
		Disclaimer:             "本报告基于AI分析生成，仅供专业参考。最终鉴定结果需结合实物检测，建议咨询权威古董鉴定机构进行确认。",
		patterns: fallbackPatterns{
			score: mustPatterns(
				`(\d+)%为真品`,
				`(\d+)%为真`,
				`真品可能性[：:\s]*(\d+)%`,
				`真品概率[：:\s]*(\d+)%`,
				`authenticity_score[：:\s]*(\d+)`,
				`(\d+)%的可能性`,
			),
			category: mustPatterns(
				`类型[：:\s]*([^，。\n]+)`,
				`属于([^，。\n]*(?:瓷器|玉器|青铜器|书画|家具|陶器)[^，。\n]*)`,
			),
			period: mustPatterns(
				`朝代[：:\s]*([^，。\n]+)`,
				`时期[：:\s]*([^，。\n]+)`,
				`年代[：:\s]*([^，。\n]+)`,
				`([^，。\n]*(?:朝|代|时期|年间)[^，。\n]*)`,
			),
			material: mustPatterns(
				`材质[：:\s]*([^，。\n]+)`,
				`胎体[：:\s]*([^，。\n]+)`,
				`釉料[：:\s]*([^，。\n]+)`,
			),
			brief: mustPatterns(
				`简要分析[：:\s]*([^。]+)。`,
				`综合判断[：:\s]*([^。]+)。`,
			),
			sentence: regexp.MustCompile(`[。！？]`),
			keywords: []string{"真品", "仿品", "可能", "判断", "分析"},
			minRunes: 20,
		},
	}
}
