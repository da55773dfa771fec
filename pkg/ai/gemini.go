package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

// GeminiConfig defines configuration options for the Gemini completer.
type GeminiConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Logger    zerolog.Logger
}

// GeminiCompleter implements Completer against the Google Gemini API.
type GeminiCompleter struct {
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiCompleter builds a Gemini completer.
func NewGeminiCompleter(cfg GeminiConfig) (*GeminiCompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiCompleter{
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/antique-appraiser/pkg/ai/gemini"),
		logger: logger.With().Str("component", "gemini_completer").Logger(),
	}, nil
}

// Model returns the configured model name.
func (g *GeminiCompleter) Model() string {
	return g.cfg.Model
}

// Complete performs one GenerateContent call with the system instruction and
// the text and image parts of the prompt.
func (g *GeminiCompleter) Complete(parent context.Context, prompt Prompt) (Completion, error) {
	ctx, span := g.tracer.Start(parent, "gemini.complete", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("images", prompt.ImageCount()),
	))
	defer span.End()

	fail := func(err error) (Completion, error) {
		completionFailures.WithLabelValues("gemini", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Completion{}, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(g.cfg.APIKey)))
	if err != nil {
		return fail(fmt.Errorf("gemini client: %w", err))
	}
	defer client.Close()

	model := client.GenerativeModel(g.cfg.Model)
	model.SetMaxOutputTokens(int32(g.cfg.MaxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.System)},
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, geminiParts(prompt.Parts)...)
	completionDuration.WithLabelValues("gemini", g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return fail(fmt.Errorf("gemini complete: %w", err))
	}

	text := geminiText(resp)
	if strings.TrimSpace(text) == "" {
		return fail(ErrEmptyCompletion)
	}

	completion := Completion{Text: text, Model: g.cfg.Model}
	if resp.UsageMetadata != nil {
		completion.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	g.logger.Debug().Dur("elapsed", time.Since(start)).Msg("completion received")
	return completion, nil
}

func geminiParts(parts []Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case PartText:
			out = append(out, genai.Text(part.Text))
		case PartImage:
			if part.Image == nil {
				continue
			}
			out = append(out, genai.Blob{MIMEType: part.Image.MIMEType, Data: part.Image.Data})
		}
	}
	return out
}

// geminiText joins the text parts of the first candidate that has any.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}
