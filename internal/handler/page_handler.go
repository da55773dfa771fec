package handler

import (
	"bytes"
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/antique-appraiser/internal/dto"
	"github.com/noah-isme/antique-appraiser/internal/service"
	"github.com/noah-isme/antique-appraiser/internal/utils"
	"github.com/noah-isme/antique-appraiser/internal/web"
)

// PageHandler serves the server-rendered appraisal page.
type PageHandler struct {
	service        service.AppraisalService
	logger         zerolog.Logger
	maxUploadBytes int64
}

// NewPageHandler creates the page handler.
func NewPageHandler(service service.AppraisalService, logger zerolog.Logger, maxUploadBytes int64) *PageHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &PageHandler{
		service:        service,
		logger:         logger.With().Str("component", "page_handler").Logger(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register binds the page routes.
func (h *PageHandler) Register(router fiber.Router) {
	router.Get("/", h.index)
	router.Post("/appraise", h.appraise)
	router.Get("/reset", h.reset)
}

func (h *PageHandler) index(c *fiber.Ctx) error {
	vm := web.NewViewModel(c.Query("lang"))
	status := fiber.StatusOK
	if id := c.Query("example"); id != "" {
		if err := vm.LoadExample(id); err != nil {
			if !errors.Is(err, web.ErrUnknownExample) {
				return err
			}
			vm.Error = err.Error()
			status = fiber.StatusNotFound
		}
	}
	return h.render(c, status, vm)
}

func (h *PageHandler) appraise(c *fiber.Ctx) error {
	var form web.FormState
	if err := c.BodyParser(&form); err != nil {
		vm := web.NewViewModel(c.FormValue("language"))
		vm.Error = vm.Locale.Messages.InvalidRequest
		return h.render(c, fiber.StatusBadRequest, vm)
	}

	vm := web.NewViewModel(form.Language)
	vm.Form = form

	uploads, _, err := multipartUploads(c, h.maxUploadBytes)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to read uploads")
		vm.Error = vm.Locale.Messages.NoUsableImages
		return h.render(c, fiber.StatusBadRequest, vm)
	}

	resp, err := h.service.Appraise(requestContext(c), form.ToRequest(), uploads, nil)
	vm.WithResult(resp)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Str("appraisal_id", resp.ID).Msg("page appraisal failed")
	}
	return h.render(c, appraisalStatus(err), vm)
}

func (h *PageHandler) reset(c *fiber.Ctx) error {
	target := "/"
	if lang := c.Query("lang"); lang != "" {
		target += "?lang=" + url.QueryEscape(lang)
	}
	return c.Redirect(target, fiber.StatusSeeOther)
}

func (h *PageHandler) render(c *fiber.Ctx, status int, vm web.ViewModel) error {
	var buf bytes.Buffer
	if err := web.Render(&buf, vm); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to render page")
		return fiber.ErrInternalServerError
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// ListExamples returns the demo example catalogue.
func ListExamples() fiber.Handler {
	return func(c *fiber.Ctx) error {
		examples := web.Examples()
		payload := make([]dto.ExampleResponse, 0, len(examples))
		for _, example := range examples {
			payload = append(payload, dto.ExampleResponse{
				ID:          example.ID,
				Title:       example.Title,
				Description: example.Description,
				Period:      example.Period,
				Material:    example.Material,
				Provenance:  example.Provenance,
			})
		}
		return utils.OK(c, payload, "examples", fiber.Map{"count": len(payload)})
	}
}
