// Command appraise runs one appraisal against local image files and prints
// the result to stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/config"
	"github.com/noah-isme/antique-appraiser/internal/dto"
	"github.com/noah-isme/antique-appraiser/internal/service"
	"github.com/noah-isme/antique-appraiser/pkg/ai"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitUsage    = 2
	exitRejected = 3
)

type completerFactory func(cfg config.Config, logger zerolog.Logger) (ai.Completer, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newCompleter)
	stop()
	os.Exit(code)
}

func newCompleter(cfg config.Config, logger zerolog.Logger) (ai.Completer, error) {
	return ai.NewCompleter(ai.ProviderConfig{
		Provider: cfg.AIProvider,
		OpenAI: ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			BaseURL:     cfg.OpenAIBaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Logger:      logger,
		},
		Gemini: ai.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.GeminiModel,
			MaxTokens: cfg.MaxTokens,
			Logger:    logger,
		},
	})
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory completerFactory) int {
	flags := pflag.NewFlagSet("appraise", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: appraise [flags] IMAGE [IMAGE...]")
		flags.PrintDefaults()
	}

	var payload dto.AppraisalRequest
	flags.StringVarP(&payload.Title, "title", "t", "", "object title")
	flags.StringArrayVarP(&payload.Descriptions, "description", "d", nil, "description fragment, repeatable")
	flags.StringVar(&payload.Period, "period", "", "estimated period")
	flags.StringVar(&payload.Material, "material", "", "estimated material")
	flags.StringVar(&payload.Provenance, "provenance", "", "provenance or acquisition")
	flags.StringVarP(&payload.Language, "lang", "l", "zh", "report language (zh or en)")
	flags.StringArrayVarP(&payload.ImageURLs, "url", "u", nil, "image URL or data URI, repeatable")
	asJSON := flags.Bool("json", false, "print the full response as JSON")
	raw := flags.Bool("raw", false, "include the raw model completion")
	verbose := flags.BoolP("verbose", "v", false, "log pipeline progress to stderr")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() == 0 && len(payload.ImageURLs) == 0 {
		flags.Usage()
		return exitUsage
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load configuration")
		return exitFailed
	}

	completer, err := factory(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create model client")
		return exitFailed
	}

	images := make([]appraisal.ImageSource, 0, flags.NArg())
	for _, path := range flags.Args() {
		images = append(images, appraisal.FileSource(path))
	}

	assembler := appraisal.NewAssembler(appraisal.AssemblerConfig{
		MaxImages:     cfg.MaxImages,
		MaxImageBytes: cfg.MaxImageBytes(),
		Concurrency:   cfg.Concurrency,
	}, appraisal.NewHTTPFetcher(cfg.FetchTimeout, cfg.MaxImageBytes()), logger)

	svc := service.NewAppraisalService(assembler, completer, nil, validator.New(), logger, service.AppraisalServiceOptions{
		IncludeRawResponse: *raw,
		ModelTimeout:       cfg.RequestTimeout,
	})

	progress := func(stage service.Stage, message string) {
		logger.Info().Str("stage", string(stage)).Msg(message)
	}

	resp, appraiseErr := svc.Appraise(ctx, payload, images, progress)

	if *asJSON {
		encoder := json.NewEncoder(stdout)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(resp); err != nil {
			logger.Error().Err(err).Msg("failed to encode response")
			return exitFailed
		}
	} else if resp.Success {
		writeText(stdout, resp, appraisal.LocaleFor(appraisal.ParseLanguage(resp.Language)))
	}

	if appraiseErr != nil {
		logger.Error().Err(appraiseErr).Msg(resp.Error)
		if errors.Is(appraiseErr, service.ErrModelFailure) {
			return exitFailed
		}
		return exitRejected
	}
	return exitOK
}
