package controller

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/bassista/go_school/internal/upload"
	"github.com/gin-gonic/gin"
)

const responseGrace = 5 * time.Second

// UploadController accepts images and forwards them to the image host.
type UploadController struct {
	uploader upload.Uploader
	maxBytes int64
	timeout  time.Duration
}

// NewUploadController serves uploads that may take up to timeout, which can be longer
// than the server-wide read and write timeouts.
func NewUploadController(uploader upload.Uploader, maxBytes int64, timeout time.Duration) *UploadController {
	return &UploadController{uploader: uploader, maxBytes: maxBytes, timeout: timeout}
}

// Upload handles POST /uploads with a multipart "image" field.
func (uc *UploadController) Upload(c *gin.Context) {
	uc.extendDeadlines(c)
	if uc.maxBytes > 0 {
		// room for the multipart envelope
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uc.maxBytes+1<<20)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": upload.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
		return
	}
	if uc.maxBytes > 0 && fh.Size > uc.maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": upload.ErrTooLarge.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read image file"})
		return
	}

	img, err := uc.uploader.Upload(c.Request.Context(), fh.Filename, data)
	if err != nil {
		logger.WithComponent("upload-controller").Warnf("upload of %s failed: %v", fh.Filename, err)
		_ = c.Error(err)
		status, kind := uploadStatus(err)
		c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
		return
	}
	c.JSON(http.StatusCreated, img)
}

// extendDeadlines leaves room to read the body and write the answer after the
// image host has replied or the request timeout has fired.
func (uc *UploadController) extendDeadlines(c *gin.Context) {
	if uc.timeout <= 0 {
		return
	}
	deadline := time.Now().Add(uc.timeout + responseGrace)
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetReadDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.WithComponent("upload-controller").Debugf("cannot extend read deadline: %v", err)
	}
	if err := rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.WithComponent("upload-controller").Debugf("cannot extend write deadline: %v", err)
	}
}

func uploadStatus(err error) (int, string) {
	switch {
	case errors.Is(err, upload.ErrNotConfigured):
		return http.StatusServiceUnavailable, string(repository.KindConfigurationMissing)
	case errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, string(repository.KindRemoteRejected)
	case errors.Is(err, upload.ErrNotImage):
		return http.StatusUnsupportedMediaType, string(repository.KindRemoteRejected)
	case errors.Is(err, upload.ErrEmpty):
		return http.StatusBadRequest, string(repository.KindRemoteRejected)
	default:
		return http.StatusBadGateway, string(repository.KindRemoteUnavailable)
	}
}
