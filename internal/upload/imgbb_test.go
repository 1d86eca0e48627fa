package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bassista/go_school/internal/config"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 30, G: 90, B: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

type received struct {
	key         string
	filename    string
	contentType string
	width       int
}

func fakeImgBB(t *testing.T, got *received, status int, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.key = r.URL.Query().Get("key")
		file, header, err := r.FormFile("image")
		if err == nil {
			got.filename = header.Filename
			got.contentType = header.Header.Get("Content-Type")
			data, _ := io.ReadAll(file)
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
				got.width = cfg.Width
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func testConfig(endpoint string) config.UploadConfig {
	return config.UploadConfig{
		Endpoint: endpoint,
		APIKey:   "secret",
		MaxWidth: 800,
		MaxBytes: 5 << 20,
		Timeout:  5 * time.Second,
	}
}

func okBody() map[string]any {
	return map[string]any{
		"success": true,
		"status":  200,
		"data": map[string]any{
			"id":         "abc123",
			"url":        "https://i.ibb.co/abc123/photo.png",
			"delete_url": "https://ibb.co/abc123/delete",
		},
	}
}

func TestImgBBUploader_Upload(t *testing.T) {
	var got received
	srv := fakeImgBB(t, &got, http.StatusOK, okBody())
	defer srv.Close()

	u := NewImgBBUploaderWithClient(testConfig(srv.URL), srv.Client())
	img, err := u.Upload(context.Background(), "photo.png", pngBytes(t, 200, 100))

	require.NoError(t, err)
	assert.Equal(t, "abc123", img.ID)
	assert.Equal(t, "https://i.ibb.co/abc123/photo.png", img.URL)
	assert.Equal(t, "https://ibb.co/abc123/delete", img.DeleteURL)
	assert.Equal(t, "photo.png", img.Name)
	assert.Equal(t, "image/png", img.Type)
	assert.Equal(t, "secret", got.key)
	assert.Equal(t, "photo.png", got.filename)
	assert.Equal(t, 200, got.width)
}

func TestImgBBUploader_DownscalesWideImages(t *testing.T) {
	var got received
	srv := fakeImgBB(t, &got, http.StatusOK, okBody())
	defer srv.Close()

	u := NewImgBBUploaderWithClient(testConfig(srv.URL), srv.Client())
	img, err := u.Upload(context.Background(), "banner.png", pngBytes(t, 1600, 400))

	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.Type)
	assert.Equal(t, "banner.jpg", img.Name)
	assert.Equal(t, "banner.jpg", got.filename)
	assert.Equal(t, "image/jpeg", got.contentType)
	assert.Equal(t, 800, got.width)
}

func TestImgBBUploader_NotConfigured(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.APIKey = ""

	_, err := NewImgBBUploader(cfg).Upload(context.Background(), "a.png", pngBytes(t, 10, 10))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestImgBBUploader_RejectsNonImages(t *testing.T) {
	u := NewImgBBUploader(testConfig("http://127.0.0.1:1"))

	_, err := u.Upload(context.Background(), "notes.txt", []byte("just some plain text, not a picture"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = u.Upload(context.Background(), "empty.png", nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestImgBBUploader_RejectsLargeFiles(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxBytes = 16

	_, err := NewImgBBUploader(cfg).Upload(context.Background(), "big.png", pngBytes(t, 100, 100))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestImgBBUploader_RemoteError(t *testing.T) {
	var got received
	srv := fakeImgBB(t, &got, http.StatusBadRequest, map[string]any{
		"success":     false,
		"status_code": 400,
		"error":       map[string]any{"message": "Invalid API v1 key."},
	})
	defer srv.Close()

	u := NewImgBBUploaderWithClient(testConfig(srv.URL), srv.Client())
	_, err := u.Upload(context.Background(), "photo.png", pngBytes(t, 20, 20))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API v1 key.")
}

func TestImgBBUploader_GarbageResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	u := NewImgBBUploaderWithClient(testConfig(srv.URL), srv.Client())
	_, err := u.Upload(context.Background(), "photo.png", pngBytes(t, 20, 20))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
