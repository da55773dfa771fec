package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/antique-appraiser/internal/dto"
	"github.com/noah-isme/antique-appraiser/internal/middleware"
	"github.com/noah-isme/antique-appraiser/internal/service"
	"github.com/noah-isme/antique-appraiser/internal/utils"
)

const (
	defaultMaxUploadBytes = int64(10 << 20)
	wsReadTimeout         = 30 * time.Second
)

// AppraisalHandler serves the JSON and websocket appraisal API.
type AppraisalHandler struct {
	service        service.AppraisalService
	logger         zerolog.Logger
	maxUploadBytes int64
}

// NewAppraisalHandler creates an appraisal handler. maxUploadBytes bounds how
// much of each uploaded file is read; zero selects 10 MiB.
func NewAppraisalHandler(service service.AppraisalService, logger zerolog.Logger, maxUploadBytes int64) *AppraisalHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &AppraisalHandler{
		service:        service,
		logger:         logger.With().Str("component", "appraisal_handler").Logger(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register binds appraisal routes under the provided router group.
func (h *AppraisalHandler) Register(router fiber.Router) {
	router.Post("", h.createMultipart)
	router.Post("/json", h.createJSON)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			c.Locals("correlation_id", middleware.GetCorrelationID(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(h.handleStream))
}

func (h *AppraisalHandler) createMultipart(c *fiber.Ctx) error {
	var payload dto.AppraisalRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form payload")
	}

	uploads, urls, err := multipartUploads(c, h.maxUploadBytes)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to read uploads")
		return utils.SendError(c, fiber.StatusBadRequest, "invalid image upload")
	}
	payload.ImageURLs = urls

	resp, err := h.service.Appraise(requestContext(c), payload, uploads, nil)
	return h.respond(c, resp, err)
}

func (h *AppraisalHandler) createJSON(c *fiber.Ctx) error {
	var payload dto.AppraisalRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	resp, err := h.service.Appraise(requestContext(c), payload, nil, nil)
	return h.respond(c, resp, err)
}

func (h *AppraisalHandler) respond(c *fiber.Ctx, resp dto.AppraisalResponse, err error) error {
	if err != nil {
		status := appraisalStatus(err)
		logger := requestLogger(h.logger, c)
		if status >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("appraisal_id", resp.ID).Msg("appraisal failed")
		} else {
			logger.Warn().Err(err).Str("appraisal_id", resp.ID).Msg("appraisal rejected")
		}
		return utils.Fail(c, status, resp.Error, resp)
	}

	return utils.SendSuccess(c, "appraisal completed", resp)
}

// handleStream reads one JSON request from the socket, streams progress
// frames while the appraisal runs and finishes with a result or error frame.
func (h *AppraisalHandler) handleStream(conn *websocket.Conn) {
	defer conn.Close()

	ctx, _ := conn.Locals("request_ctx").(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}
	correlation, _ := conn.Locals("correlation_id").(string)
	logger := h.logger.With().Str("correlation_id", correlation).Logger()

	setReadDeadline(conn, time.Now().Add(wsReadTimeout), logger)
	var payload dto.AppraisalRequest
	if err := conn.ReadJSON(&payload); err != nil {
		logger.Warn().Err(err).Msg("invalid websocket request")
		if err := conn.WriteJSON(dto.AppraisalStreamMessage{Type: dto.StreamTypeError, Message: "invalid JSON payload"}); err != nil {
			logger.Debug().Err(err).Msg("failed to write error frame")
		}
		return
	}
	setReadDeadline(conn, time.Time{}, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A read error means the client went away; abort the model call.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	progress := func(stage service.Stage, message string) {
		if stage == service.StageCompleted || stage == service.StageFailed {
			return
		}
		if err := conn.WriteJSON(dto.AppraisalStreamMessage{Type: dto.StreamTypeProgress, Stage: string(stage), Message: message}); err != nil {
			logger.Debug().Err(err).Msg("failed to write progress frame")
		}
	}

	logger.Info().Msg("appraisal stream started")
	resp, err := h.service.Appraise(ctx, payload, nil, progress)

	frame := dto.AppraisalStreamMessage{Type: dto.StreamTypeResult, Stage: string(service.StageCompleted), Data: &resp}
	if err != nil {
		logger.Warn().Err(err).Str("appraisal_id", resp.ID).Msg("streamed appraisal failed")
		frame = dto.AppraisalStreamMessage{Type: dto.StreamTypeError, Stage: string(service.StageFailed), Message: resp.Error, Data: &resp}
	}
	if err := conn.WriteJSON(frame); err != nil {
		logger.Debug().Err(err).Msg("failed to write final frame")
		return
	}
	if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		logger.Debug().Err(err).Msg("failed to write close frame")
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// setReadDeadline applies a read deadline; a zero time clears it.
func setReadDeadline(conn readDeadliner, deadline time.Time, logger zerolog.Logger) {
	if err := conn.SetReadDeadline(deadline); err != nil {
		logger.Debug().Err(err).Time("deadline", deadline).Msg("failed to set websocket read deadline")
	}
}
