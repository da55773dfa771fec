package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/dto"
	"github.com/noah-isme/antique-appraiser/internal/events"
	"github.com/noah-isme/antique-appraiser/internal/middleware"
	"github.com/noah-isme/antique-appraiser/internal/observability"
	"github.com/noah-isme/antique-appraiser/pkg/ai"
)

// ErrModelFailure wraps any failure of the single model call.
var ErrModelFailure = errors.New("model invocation failed")

// Stage names a step of the appraisal pipeline reported to progress callbacks.
type Stage string

const (
	StageReceived         Stage = "received"
	StageProcessingImages Stage = "processing_images"
	StageAnalyzing        Stage = "analyzing"
	StageInterpreting     Stage = "interpreting"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
)

// ProgressFunc receives pipeline progress. It may be nil.
type ProgressFunc func(stage Stage, message string)

const (
	outcomeSuccess        = "success"
	outcomeInvalidRequest = "invalid_request"
	outcomeNoImages       = "no_images"
	outcomeNoUsableImages = "no_usable_images"
	outcomeModelFailure   = "model_failure"
	outcomeInternal       = "internal_error"
)

// AppraisalService runs one appraisal end to end.
type AppraisalService interface {
	Appraise(ctx context.Context, payload dto.AppraisalRequest, images []appraisal.ImageSource, progress ProgressFunc) (dto.AppraisalResponse, error)
}

// AppraisalServiceOptions tunes optional behaviour.
type AppraisalServiceOptions struct {
	// IncludeRawResponse copies the unparsed completion into the response.
	IncludeRawResponse bool
	// ModelTimeout bounds the model call. Zero leaves it to the caller's context.
	ModelTimeout       time.Duration
	Now                func() time.Time
}

type appraisalService struct {
	assembler  *appraisal.Assembler
	completer  ai.Completer
	publisher  events.Publisher
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	logger     zerolog.Logger
	tracer     trace.Tracer
	includeRaw bool
	timeout    time.Duration
	now        func() time.Time
}

// NewAppraisalService wires the pipeline. A nil publisher disables events.
func NewAppraisalService(assembler *appraisal.Assembler, completer ai.Completer, publisher events.Publisher, validate *validator.Validate, logger zerolog.Logger, opts AppraisalServiceOptions) AppraisalService {
	if validate == nil {
		validate = validator.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &appraisalService{
		assembler:  assembler,
		completer:  completer,
		publisher:  publisher,
		validator:  validate,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.With().Str("component", "appraisal_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/antique-appraiser/internal/service/appraisal"),
		includeRaw: opts.IncludeRawResponse,
		timeout:    opts.ModelTimeout,
		now:        now,
	}
}

// Appraise validates the request, assembles the prompt, performs the single
// model call and interprets the completion. The returned response is always
// populated; on failure Success is false and Error holds a localized message.
func (s *appraisalService) Appraise(ctx context.Context, payload dto.AppraisalRequest, images []appraisal.ImageSource, progress ProgressFunc) (dto.AppraisalResponse, error) {
	start := s.now()
	if progress == nil {
		progress = func(Stage, string) {}
	}

	language := appraisal.ParseLanguage(payload.Language)
	payload.Language = string(language)
	loc := appraisal.LocaleFor(language)

	resp := dto.AppraisalResponse{
		ID:        uuid.NewString(),
		Language:  string(language),
		CreatedAt: start.UTC(),
	}

	ctx, span := s.tracer.Start(ctx, "appraisal.appraise", trace.WithAttributes(
		attribute.String("appraisal.id", resp.ID),
		attribute.String("appraisal.language", resp.Language),
		attribute.Int("appraisal.uploads", len(images)),
		attribute.Int("appraisal.urls", len(payload.ImageURLs)),
	))
	defer span.End()

	logger := s.logger.With().
		Str("appraisal_id", resp.ID).
		Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
		Logger()
	progress(StageReceived, resp.ID)

	fail := func(outcome, message string, err error) (dto.AppraisalResponse, error) {
		resp.Success = false
		resp.Error = message
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		progress(StageFailed, message)
		s.finish(ctx, &resp, outcome, start)
		return resp, err
	}

	if err := s.validator.Struct(payload); err != nil {
		logger.Warn().Err(err).Msg("invalid appraisal request")
		return fail(outcomeInvalidRequest, loc.Messages.InvalidRequest, err)
	}

	sources := make([]appraisal.ImageSource, 0, len(images)+len(payload.ImageURLs))
	sources = append(sources, images...)
	for _, uri := range payload.ImageURLs {
		if uri = strings.TrimSpace(uri); uri != "" {
			sources = append(sources, appraisal.URISource(uri))
		}
	}

	progress(StageProcessingImages, fmt.Sprintf("%d", len(sources)))
	assembly, err := s.assembler.Assemble(ctx, appraisal.Request{
		Images:       sources,
		Title:        s.clean(payload.Title),
		Descriptions: s.cleanAll(payload.AllDescriptions()),
		Period:       s.clean(payload.Period),
		Material:     s.clean(payload.Material),
		Provenance:   s.clean(payload.Provenance),
		Language:     language,
	})
	resp.ImagesUsed = len(assembly.Images)
	resp.ImagesSkipped = assembly.Skipped
	resp.ImagesDropped = assembly.Dropped
	observability.ImagesRejected().Add(float64(len(assembly.Skipped)))

	switch {
	case errors.Is(err, appraisal.ErrNoImages):
		return fail(outcomeNoImages, loc.Messages.NoImages, err)
	case errors.Is(err, appraisal.ErrNoUsableImages):
		logger.Warn().Int("skipped", len(assembly.Skipped)).Msg("no usable images")
		return fail(outcomeNoUsableImages, loc.Messages.NoUsableImages, err)
	case err != nil:
		logger.Error().Err(err).Msg("prompt assembly failed")
		return fail(outcomeInternal, loc.Messages.ModelFailure, err)
	}

	span.SetAttributes(attribute.Int("appraisal.images_used", resp.ImagesUsed))
	progress(StageAnalyzing, s.completer.Model())

	completion, err := s.complete(ctx, assembly.Prompt)
	if err != nil {
		logger.Error().Err(err).Str("model", s.completer.Model()).Msg("model call failed")
		resp.Model = s.completer.Model()
		return fail(outcomeModelFailure, loc.Messages.ModelFailure, fmt.Errorf("%w: %w", ErrModelFailure, err))
	}

	progress(StageInterpreting, "")
	assessment := appraisal.Assess(completion.Text, loc)
	reportHTML, err := appraisal.RenderHTML(assessment.Report, loc, start.Format("2006-01-02 15:04"))
	if err != nil {
		logger.Warn().Err(err).Msg("report rendering failed")
	}

	resp.Success = true
	resp.Score = assessment.Score
	resp.Category = assessment.Category
	resp.Period = assessment.Period
	resp.Material = assessment.Material
	resp.BriefAnalysis = assessment.Brief
	resp.DetailedReport = assessment.Fields.Report
	resp.ReportBlocks = assessment.Report.Blocks
	resp.ReportHTML = reportHTML
	resp.ParseMode = assessment.Mode
	resp.FallbackReason = assessment.Reason
	resp.Band = assessment.Band
	resp.BandLabel = assessment.BandLabel
	resp.Recommendations = assessment.Recommendations
	resp.ScoreColor = assessment.ScoreColor
	resp.Model = completion.Model
	if resp.Model == "" {
		resp.Model = s.completer.Model()
	}
	if s.includeRaw {
		resp.RawResponse = completion.Text
	}

	if !assessment.IsStrict() {
		logger.Warn().Str("reason", string(assessment.Reason)).Msg("completion parsed with fallback")
	}
	observability.ParseOutcomes().WithLabelValues(string(assessment.Mode), string(assessment.Reason)).Inc()
	observability.AuthenticityScores().Observe(float64(resp.Score))
	span.SetAttributes(
		attribute.Int("appraisal.score", resp.Score),
		attribute.String("appraisal.parse_mode", string(resp.ParseMode)),
	)
	span.SetStatus(codes.Ok, "appraised")

	s.finish(ctx, &resp, outcomeSuccess, start)
	progress(StageCompleted, resp.ID)

	logger.Info().
		Int("score", resp.Score).
		Str("band", string(resp.Band)).
		Str("parse_mode", string(resp.ParseMode)).
		Int("images", resp.ImagesUsed).
		Int64("duration_ms", resp.DurationMS).
		Int("total_tokens", completion.Usage.TotalTokens).
		Msg("appraisal completed")

	return resp, nil
}

func (s *appraisalService) complete(ctx context.Context, prompt ai.Prompt) (ai.Completion, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.completer.Complete(ctx, prompt)
}

func (s *appraisalService) finish(ctx context.Context, resp *dto.AppraisalResponse, outcome string, start time.Time) {
	elapsed := s.now().Sub(start)
	resp.DurationMS = elapsed.Milliseconds()

	observability.Appraisals().WithLabelValues(outcome).Inc()
	observability.AppraisalDuration().WithLabelValues(outcome).Observe(elapsed.Seconds())

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, dto.NewAppraisalEvent(*resp)); err != nil {
		s.logger.Warn().Err(err).Str("appraisal_id", resp.ID).Msg("failed to publish appraisal event")
	}
}

// clean strips markup from user text before it reaches the prompt.
func (s *appraisalService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *appraisalService) cleanAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if cleaned := s.clean(value); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
