package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
)

// AppraisalRequest carries the optional text metadata of an appraisal. Image
// files arrive separately as multipart parts; ImageURLs holds http(s) URLs or
// data URIs.
type AppraisalRequest struct {
	Title        string   `json:"title" form:"title" validate:"omitempty,max=200"`
	Description  string   `json:"description" form:"description" validate:"omitempty,max=4000"`
	Descriptions []string `json:"descriptions" validate:"omitempty,max=20,dive,max=4000"`
	Period       string   `json:"period" form:"period" validate:"omitempty,max=100"`
	Material     string   `json:"material" form:"material" validate:"omitempty,max=100"`
	Provenance   string   `json:"provenance" form:"provenance" validate:"omitempty,max=500"`
	Language     string   `json:"language" form:"language" validate:"omitempty,oneof=zh en"`
	ImageURLs    []string `json:"image_urls" validate:"omitempty,max=20,dive,required"`
}

// AllDescriptions returns the single form description followed by any extra
// descriptions, blanks removed.
func (r AppraisalRequest) AllDescriptions() []string {
	out := make([]string, 0, len(r.Descriptions)+1)
	if d := strings.TrimSpace(r.Description); d != "" {
		out = append(out, d)
	}
	for _, d := range r.Descriptions {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// AppraisalResponse is the uniform result shape. Error is set only when
// Success is false; the remaining fields are then zero or partial.
type AppraisalResponse struct {
	ID              string                   `json:"id"`
	Success         bool                     `json:"success"`
	Error           string                   `json:"error,omitempty"`
	Score           int                      `json:"authenticity_score"`
	Category        string                   `json:"category,omitempty"`
	Period          string                   `json:"period,omitempty"`
	Material        string                   `json:"material,omitempty"`
	BriefAnalysis   string                   `json:"brief_analysis,omitempty"`
	DetailedReport  string                   `json:"detailed_report,omitempty"`
	ReportBlocks    []appraisal.Block        `json:"report_blocks,omitempty"`
	ReportHTML      string                   `json:"report_html,omitempty"`
	ParseMode       appraisal.ParseMode      `json:"parse_mode,omitempty"`
	FallbackReason  appraisal.FallbackReason `json:"fallback_reason,omitempty"`
	Band            appraisal.Band           `json:"band,omitempty"`
	BandLabel       string                   `json:"band_label,omitempty"`
	Recommendations []string                 `json:"recommendations,omitempty"`
	ScoreColor      string                   `json:"score_color,omitempty"`
	ImagesUsed      int                      `json:"images_used"`
	ImagesSkipped   []appraisal.SkippedImage `json:"images_skipped,omitempty"`
	ImagesDropped   int                      `json:"images_dropped,omitempty"`
	Model           string                   `json:"model,omitempty"`
	Language        string                   `json:"language"`
	DurationMS      int64                    `json:"duration_ms"`
	RawResponse     string                   `json:"raw_response,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

// AppraisalEvent is published once an appraisal finishes.
type AppraisalEvent struct {
	ID             string                   `json:"id"`
	Success        bool                     `json:"success"`
	Error          string                   `json:"error,omitempty"`
	Score          int                      `json:"authenticity_score"`
	Band           appraisal.Band           `json:"band,omitempty"`
	Category       string                   `json:"category,omitempty"`
	Period         string                   `json:"period,omitempty"`
	ParseMode      appraisal.ParseMode      `json:"parse_mode,omitempty"`
	FallbackReason appraisal.FallbackReason `json:"fallback_reason,omitempty"`
	ImagesUsed     int                      `json:"images_used"`
	Model          string                   `json:"model,omitempty"`
	Language       string                   `json:"language"`
	DurationMS     int64                    `json:"duration_ms"`
	CreatedAt      time.Time                `json:"created_at"`
}

// NewAppraisalEvent summarizes a response for subscribers.
func NewAppraisalEvent(resp AppraisalResponse) AppraisalEvent {
	return AppraisalEvent{
		ID:             resp.ID,
		Success:        resp.Success,
		Error:          resp.Error,
		Score:          resp.Score,
		Band:           resp.Band,
		Category:       resp.Category,
		Period:         resp.Period,
		ParseMode:      resp.ParseMode,
		FallbackReason: resp.FallbackReason,
		ImagesUsed:     resp.ImagesUsed,
		Model:          resp.Model,
		Language:       resp.Language,
		DurationMS:     resp.DurationMS,
		CreatedAt:      resp.CreatedAt,
	}
}

// Stream message types sent over the appraisal websocket.
const (
	StreamTypeProgress = "progress"
	StreamTypeResult   = "result"
	StreamTypeError    = "error"
)

// AppraisalStreamMessage is one frame of the appraisal websocket.
type AppraisalStreamMessage struct {
	Type    string             `json:"type"`
	Stage   string             `json:"stage,omitempty"`
	Message string             `json:"message,omitempty"`
	Data    *AppraisalResponse `json:"data,omitempty"`
}

// ExampleResponse is a sample object whose metadata pre-fills the form.
type ExampleResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Period      string `json:"period"`
	Material    string `json:"material"`
	Provenance  string `json:"provenance"`
}
