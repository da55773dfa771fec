package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/dto"
)

const barWidth = 20

// writeText prints a terminal rendition of a successful appraisal.
func writeText(w io.Writer, resp dto.AppraisalResponse, loc *appraisal.Locale) {
	filled := resp.Score * barWidth / appraisal.MaxScore
	bar := strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled)

	fmt.Fprintf(w, "%s\n\n", loc.ReportTitle)
	fmt.Fprintf(w, "[%s] %d%%  %s\n", bar, resp.Score, resp.BandLabel)
	fmt.Fprintf(w, "%s | %s | %s\n", resp.Category, resp.Period, resp.Material)
	fmt.Fprintf(w, "%s\n", resp.BriefAnalysis)
	for _, advice := range resp.Recommendations {
		fmt.Fprintf(w, "  * %s\n", advice)
	}
	fmt.Fprintln(w)

	for _, block := range resp.ReportBlocks {
		switch block.Kind {
		case appraisal.BlockHeading:
			fmt.Fprintf(w, "\n%s\n%s\n", block.Text, strings.Repeat("=", min(len([]rune(block.Text))*2, 60)))
		case appraisal.BlockSubheading:
			fmt.Fprintf(w, "\n%s\n", block.Text)
		case appraisal.BlockField:
			fmt.Fprintf(w, "%s: %s\n", block.Label, block.Value)
		case appraisal.BlockListItem:
			fmt.Fprintf(w, "  - %s\n", block.Text)
		case appraisal.BlockConclusion:
			fmt.Fprintf(w, "[%s] %s\n", loc.ConclusionLabel, block.Text)
		case appraisal.BlockRecommendation:
			fmt.Fprintf(w, "[%s] %s\n", loc.RecommendationLabel, block.Text)
		default:
			fmt.Fprintln(w, block.Text)
		}
	}

	if len(resp.ImagesSkipped) > 0 {
		fmt.Fprintln(w)
		for _, skipped := range resp.ImagesSkipped {
			fmt.Fprintf(w, "skipped %s: %s\n", skipped.Label, skipped.Reason)
		}
	}
	fmt.Fprintf(w, "\n%s\n", loc.Disclaimer)
}
