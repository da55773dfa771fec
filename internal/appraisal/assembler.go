package appraisal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/noah-isme/antique-appraiser/pkg/ai"
)

const (
	DefaultMaxImages       = 6
	DefaultMaxDescriptions = 5
	defaultConcurrency     = 3
)

// AssemblerConfig bounds what a single prompt may carry.
type AssemblerConfig struct {
	MaxImages       int
	MaxImageBytes   int64
	MaxDescriptions int
	Concurrency     int
}

// Request is everything a caller supplies for one appraisal.
type Request struct {
	Images       []ImageSource
	Title        string
	Descriptions []string
	Period       string
	Material     string
	Provenance   string
	Language     Language
}

// SkippedImage records a source that could not be used.
type SkippedImage struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// Assembly is the prompt plus an account of which images made it in.
type Assembly struct {
	Prompt  ai.Prompt
	Images  []NormalizedImage
	Skipped []SkippedImage
	// Dropped counts sources never attempted because the cap was reached.
	Dropped int
	Locale  *Locale
}

// Assembler turns a Request into a provider-agnostic prompt.
type Assembler struct {
	cfg     AssemblerConfig
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewAssembler constructs an assembler. A nil fetcher disables remote URLs.
func NewAssembler(cfg AssemblerConfig, fetcher Fetcher, logger zerolog.Logger) *Assembler {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = DefaultMaxImages
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}
	if cfg.MaxDescriptions <= 0 {
		cfg.MaxDescriptions = DefaultMaxDescriptions
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Assembler{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With().Str("component", "assembler").Logger(),
	}
}

// MaxImages returns the configured image cap.
func (a *Assembler) MaxImages() int {
	return a.cfg.MaxImages
}

type normalizeResult struct {
	image NormalizedImage
	err   error
}

// Assemble normalizes images in input order until the cap is reached and
// renders the prompt. Unusable sources are skipped and reported. It returns
// ErrNoImages for an empty request and ErrNoUsableImages when every source
// was rejected; the Assembly is still populated in the latter case.
func (a *Assembler) Assemble(ctx context.Context, req Request) (Assembly, error) {
	loc := LocaleFor(req.Language)
	assembly := Assembly{Locale: loc}

	if len(req.Images) == 0 {
		return assembly, ErrNoImages
	}

	next := 0
	for next < len(req.Images) && len(assembly.Images) < a.cfg.MaxImages {
		if err := ctx.Err(); err != nil {
			return assembly, fmt.Errorf("assemble prompt: %w", err)
		}

		need := a.cfg.MaxImages - len(assembly.Images)
		end := min(next+need, len(req.Images))
		window := req.Images[next:end]
		next = end

		mapper := iter.Mapper[ImageSource, normalizeResult]{MaxGoroutines: a.cfg.Concurrency}
		results := mapper.Map(window, func(src *ImageSource) normalizeResult {
			img, err := a.normalize(ctx, *src)
			return normalizeResult{image: img, err: err}
		})

		for i, result := range results {
			if result.err != nil {
				label := window[i].Label()
				a.logger.Warn().Err(result.err).Str("image", label).Msg("image skipped")
				assembly.Skipped = append(assembly.Skipped, SkippedImage{Label: label, Reason: result.err.Error()})
				continue
			}
			assembly.Images = append(assembly.Images, result.image)
		}
	}
	assembly.Dropped = len(req.Images) - next

	if len(assembly.Images) == 0 {
		return assembly, ErrNoUsableImages
	}

	descriptions := compactDescriptions(req.Descriptions, a.cfg.MaxDescriptions)

	system, err := SystemPrompt(loc)
	if err != nil {
		return assembly, err
	}
	user, err := UserPrompt(loc, req, descriptions)
	if err != nil {
		return assembly, err
	}

	parts := make([]ai.Part, 0, len(assembly.Images)+1)
	parts = append(parts, ai.TextPart(user))
	for _, img := range assembly.Images {
		parts = append(parts, ai.ImagePart(ai.Image{MIMEType: img.MIMEType, Data: img.data}))
	}
	assembly.Prompt = ai.Prompt{System: system, Parts: parts}

	a.logger.Debug().
		Int("images", len(assembly.Images)).
		Int("skipped", len(assembly.Skipped)).
		Int("dropped", assembly.Dropped).
		Str("language", string(loc.Language)).
		Msg("prompt assembled")

	return assembly, nil
}

func (a *Assembler) normalize(ctx context.Context, src ImageSource) (NormalizedImage, error) {
	data, declared, err := a.load(ctx, src)
	if err != nil {
		return NormalizedImage{}, err
	}
	if len(data) == 0 {
		return NormalizedImage{}, ErrEmptyImage
	}
	if int64(len(data)) > a.cfg.MaxImageBytes {
		return NormalizedImage{}, ErrImageTooLarge
	}

	name := src.Name
	if name == "" {
		name = src.Path
	}
	if name == "" && !strings.HasPrefix(src.URI, "data:") {
		name = src.URI
	}

	return NormalizedImage{
		Label:    src.Label(),
		MIMEType: DetectMIME(data, declared, name),
		Size:     len(data),
		data:     data,
	}, nil
}

func (a *Assembler) load(ctx context.Context, src ImageSource) ([]byte, string, error) {
	switch {
	case len(src.Data) > 0:
		return src.Data, src.ContentType, nil
	case strings.HasPrefix(src.URI, "data:"):
		return decodeDataURI(src.URI)
	case strings.HasPrefix(src.URI, "http://"), strings.HasPrefix(src.URI, "https://"):
		if a.fetcher == nil {
			return nil, "", ErrUnsupportedSource
		}
		data, contentType, err := a.fetcher.Fetch(ctx, src.URI)
		if err != nil {
			return nil, "", err
		}
		if src.ContentType != "" {
			contentType = src.ContentType
		}
		return data, contentType, nil
	case src.URI != "":
		return nil, "", ErrUnsupportedSource
	case src.Path != "":
		data, err := readLocalFile(src.Path, a.cfg.MaxImageBytes)
		if err != nil && !errors.Is(err, ErrImageTooLarge) && !errors.Is(err, ErrUnsupportedSource) {
			return nil, "", fmt.Errorf("read %s: %w", src.Path, err)
		}
		return data, src.ContentType, err
	default:
		return nil, "", ErrEmptyImage
	}
}

func compactDescriptions(values []string, limit int) []string {
	out := make([]string, 0, min(len(values), limit))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, value)
		if len(out) == limit {
			break
		}
	}
	return out
}
