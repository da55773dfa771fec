package appraisal

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrNoImages indicates the request carried no image sources at all.
	ErrNoImages = errors.New("no images supplied")
	// ErrNoUsableImages indicates every supplied image was rejected.
	ErrNoUsableImages = errors.New("no usable images")

	ErrEmptyImage        = errors.New("image is empty")
	ErrImageTooLarge     = errors.New("image exceeds maximum allowed size")
	ErrInvalidDataURI    = errors.New("invalid data uri")
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrFetchFailed       = errors.New("image fetch failed")
)

const (
	defaultImageMIME     = "image/jpeg"
	defaultMaxImageBytes = int64(10 << 20)
	defaultFetchTimeout  = 10 * time.Second
)

var supportedImageFormats = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var extensionFormats = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageSource is one image as supplied by a caller: raw bytes, a remote or
// data URI, or a local path.
type ImageSource struct {
	Name        string
	ContentType string
	Data        []byte
	URI         string
	Path        string
}

// BytesSource wraps an uploaded file.
func BytesSource(name, contentType string, data []byte) ImageSource {
	return ImageSource{Name: name, ContentType: contentType, Data: data}
}

// URISource wraps an http(s) URL or a data URI.
func URISource(uri string) ImageSource {
	return ImageSource{URI: strings.TrimSpace(uri)}
}

// FileSource wraps a path on the local filesystem.
func FileSource(path string) ImageSource {
	return ImageSource{Path: path, Name: filepath.Base(path)}
}

// Label identifies the source in logs and skip reports.
func (s ImageSource) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Path != "":
		return s.Path
	case strings.HasPrefix(s.URI, "data:"):
		return "data-uri"
	case s.URI != "":
		return s.URI
	default:
		return "image"
	}
}

// NormalizedImage is an image ready to be inlined into a prompt.
type NormalizedImage struct {
	Label    string `json:"label"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
	data     []byte
}

// Data returns the image bytes.
func (n NormalizedImage) Data() []byte {
	return n.data
}

// SupportedMIME reports whether the MIME type can be sent to the model.
func SupportedMIME(mime string) bool {
	_, ok := supportedImageFormats[normalizeMIME(mime)]
	return ok
}

func normalizeMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime == "image/jpg" || mime == "image/pjpeg" {
		return "image/jpeg"
	}
	return mime
}

// DetectMIME picks the MIME type for an image: sniffed content first, then
// the declared type, then the file extension, then jpeg.
func DetectMIME(data []byte, declared, name string) string {
	if len(data) > 0 {
		if sniffed := normalizeMIME(mimetype.Detect(data).String()); SupportedMIME(sniffed) {
			return sniffed
		}
	}
	if d := normalizeMIME(declared); SupportedMIME(d) {
		return d
	}
	if name != "" {
		ext := strings.ToLower(filepath.Ext(strings.SplitN(name, "?", 2)[0]))
		if mime, ok := extensionFormats[ext]; ok {
			return mime
		}
	}
	return defaultImageMIME
}

// decodeDataURI splits "data:<mime>;base64,<payload>".
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(strings.ToLower(meta), ";base64") {
		return nil, "", ErrInvalidDataURI
	}
	mime := meta[:len(meta)-len(";base64")]

	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
	}
	return data, mime, nil
}

// Fetcher retrieves remote images.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// HTTPFetcher downloads images over HTTP with a per-request timeout and a
// size cap.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher builds a fetcher. Non-positive values fall back to 10s and
// 10 MiB.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes: maxBytes,
	}
}

// Fetch returns the body and Content-Type of a successful GET.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, "", ErrImageTooLarge
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// readLocalFile loads an image from disk, refusing files over the cap.
func readLocalFile(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrUnsupportedSource
	}
	if info.Size() > maxBytes {
		return nil, ErrImageTooLarge
	}
	return os.ReadFile(path)
}
