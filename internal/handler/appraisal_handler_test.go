package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/antique-appraiser/internal/appraisal"
	"github.com/noah-isme/antique-appraiser/internal/dto"
	"github.com/noah-isme/antique-appraiser/internal/handler"
	"github.com/noah-isme/antique-appraiser/internal/middleware"
	"github.com/noah-isme/antique-appraiser/internal/service"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

type stubAppraisalService struct {
	mu      sync.Mutex
	payload dto.AppraisalRequest
	images  []appraisal.ImageSource
	stages  []service.Stage
	resp    dto.AppraisalResponse
	err     error
	calls   int
}

func (s *stubAppraisalService) Appraise(_ context.Context, payload dto.AppraisalRequest, images []appraisal.ImageSource, progress service.ProgressFunc) (dto.AppraisalResponse, error) {
	s.mu.Lock()
	s.calls++
	s.payload = payload
	s.images = images
	s.mu.Unlock()

	if progress != nil {
		for _, stage := range s.stages {
			progress(stage, string(stage))
		}
	}
	return s.resp, s.err
}

func (s *stubAppraisalService) lastPayload() dto.AppraisalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload
}

func successResponse() dto.AppraisalResponse {
	return dto.AppraisalResponse{
		ID:              "appr-1",
		Success:         true,
		Score:           82,
		Category:        "青花瓷",
		Period:          "清代康熙",
		Material:        "瓷胎",
		BriefAnalysis:   "整体符合康熙民窑特征。",
		DetailedReport:  "一、基础信息识别\n朝代：清代康熙",
		ReportBlocks:    []appraisal.Block{{Kind: appraisal.BlockHeading, Text: "一、基础信息识别"}},
		ReportHTML:      `<article class="appraisal-report"><h2 class="report-heading">一、基础信息识别</h2></article>`,
		ParseMode:       appraisal.ParseStrict,
		Band:            appraisal.BandHigh,
		BandLabel:       "很可能为真品",
		Recommendations: []string{"建议进行实物检测确认"},
		ScoreColor:      "rgb(46, 209, 0)",
		ImagesUsed:      2,
		Model:           "o3",
		Language:        "zh",
		DurationMS:      1200,
		CreatedAt:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func failedResponse(message string) dto.AppraisalResponse {
	return dto.AppraisalResponse{ID: "appr-2", Success: false, Error: message, Language: "zh"}
}

func newAppraisalApp(svc service.AppraisalService) *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	handler.NewAppraisalHandler(svc, zerolog.New(io.Discard), 1<<20).Register(app.Group("/api/v1/appraisals"))
	return app
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, data := range files {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type envelope struct {
	Success bool                  `json:"success"`
	Data    dto.AppraisalResponse `json:"data"`
	Details dto.AppraisalResponse `json:"details"`
	Message string                `json:"message"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var payload envelope
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestAppraisalHandler_MultipartSuccess(t *testing.T) {
	svc := &stubAppraisalService{resp: successResponse()}
	app := newAppraisalApp(svc)

	body, contentType := multipartBody(t,
		map[string]string{
			"title":      "青花瓷碗",
			"period":     "清代",
			"language":   "zh",
			"image_urls": "https://example.com/a.jpg\ndata:image/png;base64,iVBORw0KGgo=",
		},
		map[string][]byte{"front.png": pngBytes, "base.png": pngBytes},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appraisals", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, "appraisal completed", payload.Message)
	require.Equal(t, 82, payload.Data.Score)
	require.Equal(t, appraisal.BandHigh, payload.Data.Band)

	require.Equal(t, "青花瓷碗", svc.payload.Title)
	require.Equal(t, "清代", svc.payload.Period)
	require.Equal(t, []string{"https://example.com/a.jpg", "data:image/png;base64,iVBORw0KGgo="}, svc.payload.ImageURLs)
	require.Len(t, svc.images, 2)
	for _, image := range svc.images {
		require.Equal(t, pngBytes, image.Data)
	}
}

func TestAppraisalHandler_ErrorStatuses(t *testing.T) {
	validationErr := validator.New().Struct(dto.AppraisalRequest{Language: "fr"})
	require.Error(t, validationErr)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"no images", appraisal.ErrNoImages, fiber.StatusBadRequest},
		{"no usable images", appraisal.ErrNoUsableImages, fiber.StatusBadRequest},
		{"validation", validationErr, fiber.StatusBadRequest},
		{"model failure", fmt.Errorf("%w: %w", service.ErrModelFailure, errors.New("timeout")), fiber.StatusBadGateway},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubAppraisalService{resp: failedResponse("鉴定失败"), err: tc.err}
			app := newAppraisalApp(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/appraisals/json", strings.NewReader(`{"title":"花瓶"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			payload := decodeEnvelope(t, resp)
			require.False(t, payload.Success)
			require.Equal(t, "鉴定失败", payload.Message)
			require.False(t, payload.Details.Success)
			require.Equal(t, "鉴定失败", payload.Details.Error)
			require.Equal(t, "appr-2", payload.Details.ID)
		})
	}
}

func TestAppraisalHandler_JSONPayload(t *testing.T) {
	svc := &stubAppraisalService{resp: successResponse()}
	app := newAppraisalApp(svc)

	body := `{"title":"Bronze mirror","descriptions":["round","inscribed"],"language":"en","image_urls":["https://example.com/m.jpg"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appraisals/json", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Bronze mirror", svc.payload.Title)
	require.Equal(t, []string{"round", "inscribed"}, svc.payload.Descriptions)
	require.Equal(t, "en", svc.payload.Language)
	require.Empty(t, svc.images)
}

func TestAppraisalHandler_InvalidJSON(t *testing.T) {
	svc := &stubAppraisalService{resp: successResponse()}
	app := newAppraisalApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appraisals/json", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)
}

func TestAppraisalHandler_WebsocketRequiresUpgrade(t *testing.T) {
	app := newAppraisalApp(&stubAppraisalService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/appraisals/ws", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestAppraisalHandler_WebsocketStreamsProgress(t *testing.T) {
	svc := &stubAppraisalService{
		resp: successResponse(),
		stages: []service.Stage{
			service.StageReceived,
			service.StageProcessingImages,
			service.StageAnalyzing,
			service.StageInterpreting,
			service.StageCompleted,
		},
	}
	app := newAppraisalApp(svc)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/api/v1/appraisals/ws"
	dialer := websocket.Dialer{HandshakeTimeout: 3 * time.Second}
	conn, resp, err := dialer.Dial(url, http.Header{"X-Correlation-ID": {"ws-test"}})
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(dto.AppraisalRequest{
		Title:     "玉璧",
		ImageURLs: []string{"data:image/png;base64,iVBORw0KGgo="},
	}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var stages []string
	var final dto.AppraisalStreamMessage
	for {
		var frame dto.AppraisalStreamMessage
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type != dto.StreamTypeProgress {
			final = frame
			break
		}
		stages = append(stages, frame.Stage)
	}

	require.Equal(t, []string{"received", "processing_images", "analyzing", "interpreting"}, stages)
	require.Equal(t, dto.StreamTypeResult, final.Type)
	require.NotNil(t, final.Data)
	require.Equal(t, 82, final.Data.Score)
	require.Equal(t, "玉璧", svc.lastPayload().Title)
}

func TestAppraisalHandler_WebsocketReportsFailure(t *testing.T) {
	svc := &stubAppraisalService{
		resp:   failedResponse("请至少上传一张古董图片"),
		err:    appraisal.ErrNoImages,
		stages: []service.Stage{service.StageReceived, service.StageFailed},
	}
	app := newAppraisalApp(svc)

	baseURL, shutdown := startFiberServer(t, app)
	defer shutdown()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(baseURL, "http")+"/api/v1/appraisals/ws", nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(dto.AppraisalRequest{Title: "空"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var progress dto.AppraisalStreamMessage
	require.NoError(t, conn.ReadJSON(&progress))
	require.Equal(t, dto.StreamTypeProgress, progress.Type)

	var final dto.AppraisalStreamMessage
	require.NoError(t, conn.ReadJSON(&final))
	require.Equal(t, dto.StreamTypeError, final.Type)
	require.Equal(t, "请至少上传一张古董图片", final.Message)
	require.NotNil(t, final.Data)
	require.False(t, final.Data.Success)
}

func startFiberServer(t *testing.T, app *fiber.App) (string, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		if err := app.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("fiber listener stopped: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)

	shutdown := func() {
		_ = app.Shutdown()
		_ = listener.Close()
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}

	return "http://" + listener.Addr().String(), shutdown
}
