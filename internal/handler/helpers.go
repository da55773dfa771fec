package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/middleware"
	"github.com/noah-isme/antique-appraiser/internal/service"
)

const imagesField = "images"

// splitLines splits newline separated input. Commas are kept because data
// URIs contain them.
func splitLines(input string) []string {
	parts := strings.FieldsFunc(input, func(r rune) bool { return r == '\n' || r == '\r' })
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// appraisalStatus maps an appraisal error onto an HTTP status.
func appraisalStatus(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, appraisal.ErrNoImages),
		errors.Is(err, appraisal.ErrNoUsableImages),
		isValidationError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrModelFailure):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// multipartUploads reads the uploaded image files and any image_urls fields
// of a multipart form. Each file is read up to maxBytes+1 so the assembler
// can reject oversized images without buffering them whole.
func multipartUploads(c *fiber.Ctx, maxBytes int64) ([]appraisal.ImageSource, []string, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fmt.Errorf("parse multipart form: %w", err)
	}

	var urls []string
	for _, value := range form.Value["image_urls"] {
		urls = append(urls, splitLines(value)...)
	}

	files := form.File[imagesField]
	sources := make([]appraisal.ImageSource, 0, len(files))
	for _, header := range files {
		data, err := readUpload(header, maxBytes)
		if err != nil {
			return nil, nil, err
		}
		sources = append(sources, appraisal.BytesSource(header.Filename, header.Header.Get(fiber.HeaderContentType), data))
	}
	return sources, urls, nil
}

func readUpload(header *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	return data, nil
}
