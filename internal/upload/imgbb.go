package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/bassista/go_school/internal/config"
	"github.com/bassista/go_school/internal/logger"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrNotConfigured = errors.New("image upload is not configured")
	ErrNotImage      = errors.New("file is not an image")
	ErrTooLarge      = errors.New("file is too large")
	ErrEmpty         = errors.New("file is empty")
)

// Image is an uploaded image as reported by the hosting service.
type Image struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	DeleteURL string `json:"deleteUrl,omitempty"`
	Name      string `json:"name"`
	Size      int    `json:"size"`
	Type      string `json:"type"`
}

// Uploader stores an image somewhere public and returns where it lives.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*Image, error)
}

// ImgBBUploader uploads images to the ImgBB API.
type ImgBBUploader struct {
	endpoint string
	apiKey   string
	maxWidth int
	maxBytes int64
	client   *http.Client
}

// NewImgBBUploader creates an uploader from the upload configuration.
func NewImgBBUploader(cfg config.UploadConfig) *ImgBBUploader {
	return &ImgBBUploader{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		maxWidth: cfg.MaxWidth,
		maxBytes: cfg.MaxBytes,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// NewImgBBUploaderWithClient is like NewImgBBUploader with a custom HTTP client.
func NewImgBBUploaderWithClient(cfg config.UploadConfig, client *http.Client) *ImgBBUploader {
	u := NewImgBBUploader(cfg)
	if client != nil {
		u.client = client
	}
	return u
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		ID        string `json:"id"`
		URL       string `json:"url"`
		DeleteURL string `json:"delete_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload validates data, downscales it when wider than the configured maximum and posts it.
func (u *ImgBBUploader) Upload(ctx context.Context, filename string, data []byte) (*Image, error) {
	log := logger.WithComponent("upload")
	if u.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if u.maxBytes > 0 && int64(len(data)) > u.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), u.maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}

	payload, contentType, err := u.shrink(data, mtype.String())
	if err != nil {
		return nil, err
	}
	if contentType != mtype.String() {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
		log.Debugf("image downscaled to %d px wide (%d -> %d bytes)", u.maxWidth, len(data), len(payload))
	}

	res, err := u.post(ctx, filename, contentType, payload)
	if err != nil {
		return nil, err
	}
	log.Infof("uploaded %s (%s)", filename, res.Data.ID)
	return &Image{
		ID:        res.Data.ID,
		URL:       res.Data.URL,
		DeleteURL: res.Data.DeleteURL,
		Name:      filename,
		Size:      len(payload),
		Type:      contentType,
	}, nil
}

// shrink returns data unchanged unless the image is wider than maxWidth.
func (u *ImgBBUploader) shrink(data []byte, contentType string) ([]byte, string, error) {
	if u.maxWidth <= 0 {
		return data, contentType, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= u.maxWidth {
		// formats the standard decoders don't know are sent as-is
		return data, contentType, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	resized := imaging.Resize(src, u.maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func (u *ImgBBUploader) post(ctx context.Context, filename, contentType string, payload []byte) (*imgbbResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, strings.ReplaceAll(filename, "\"", "_")))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}

	target := u.endpoint + "?key=" + url.QueryEscape(u.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	logger.WithComponent("upload").Debugf("imgbb responded %d in %v", resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	var res imgbbResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if !res.Success || resp.StatusCode >= 400 {
		msg := res.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("upload rejected: %s", msg)
	}
	if res.Data.URL == "" {
		return nil, errors.New("upload response carries no url")
	}
	return &res, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
