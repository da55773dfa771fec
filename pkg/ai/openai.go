package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "appraiser",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of multi-modal completion requests",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300},
	}, []string{"provider", "model"})

	completionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "appraiser",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of failed completion requests",
	}, []string{"provider", "model"})
)

// OpenAIConfig defines configuration options for the OpenAI completer.
type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	// Temperature is left at zero for reasoning models, which reject it.
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAICompleter implements Completer against the OpenAI chat completion API.
type OpenAICompleter struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAICompleter builds a new completer using the provided configuration.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "o3"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		config.BaseURL = strings.TrimRight(base, "/")
	}

	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/antique-appraiser/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_completer").Logger(),
	}, nil
}

// Model returns the configured model name.
func (e *OpenAICompleter) Model() string {
	return e.cfg.Model
}

// Complete sends the system instruction and the multi-modal user message in
// a single chat completion call and returns the first choice.
func (e *OpenAICompleter) Complete(parent context.Context, prompt Prompt) (Completion, error) {
	ctx, span := e.tracer.Start(parent, "openai.complete", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("images", prompt.ImageCount()),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:               e.cfg.Model,
		MaxCompletionTokens: e.cfg.MaxTokens,
		Temperature:         e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.System,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: openAIParts(prompt.Parts),
			},
		},
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, request)
	completionDuration.WithLabelValues("openai", e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		completionFailures.WithLabelValues("openai", e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Completion{}, fmt.Errorf("openai complete: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		completionFailures.WithLabelValues("openai", e.cfg.Model).Inc()
		span.RecordError(ErrEmptyCompletion)
		span.SetStatus(codes.Error, ErrEmptyCompletion.Error())
		return Completion{}, ErrEmptyCompletion
	}

	e.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("completion received")

	model := resp.Model
	if model == "" {
		model = e.cfg.Model
	}

	return Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func openAIParts(parts []Part) []openai.ChatMessagePart {
	out := make([]openai.ChatMessagePart, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case PartText:
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case PartImage:
			if part.Image == nil {
				continue
			}
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    part.Image.DataURI(),
					Detail: openai.ImageURLDetailHigh,
				},
			})
		}
	}
	return out
}
