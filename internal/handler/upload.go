package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/internal/storage"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"github.com/suteetoe/claimdesk/prometheus"
	"go.uber.org/zap"
)

const imageField = "image"

// imageUploader reads the multipart "image" field, checks it really is an image and stores it.
type imageUploader struct {
	store    storage.ImageStore
	maxBytes int64
}

func newImageUploader(store storage.ImageStore, maxBytes int64) *imageUploader {
	return &imageUploader{store: store, maxBytes: maxBytes}
}

func (u *imageUploader) url(ref string) string {
	if u == nil || u.store == nil || ref == "" {
		return ref
	}
	return u.store.URL(ref)
}

// receive stores the uploaded image under namespace and returns its reference. Client
// mistakes come back as *model.ValidationError.
func (u *imageUploader) receive(c echo.Context, namespace string) (string, error) {
	log := logger.FromEcho(c)
	reject := func(msg string) error {
		prometheus.RecordImageUpload(namespace, "rejected")
		verr := model.NewValidationError()
		verr.Add(imageField, msg)
		return verr
	}

	fh, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", reject("No file was submitted.")
		}
		log.Info("Failed to read upload", zap.Error(err))
		return "", reject("The submitted data was not a file.")
	}
	if fh.Size > u.maxBytes {
		return "", reject(fmt.Sprintf("Ensure the file is at most %d bytes.", u.maxBytes))
	}

	f, err := fh.Open()
	if err != nil {
		prometheus.RecordImageUpload(namespace, "failed")
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, u.maxBytes+1))
	if err != nil {
		prometheus.RecordImageUpload(namespace, "failed")
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return "", reject(fmt.Sprintf("Ensure the file is at most %d bytes.", u.maxBytes))
	}

	ext, err := storage.DetectImage(data)
	if err != nil {
		log.Info("Rejected non-image upload", zap.String("filename", fh.Filename))
		return "", reject(storage.ErrNotImage.Error())
	}

	ref, err := u.store.Save(c.Request().Context(), namespace, ext, data)
	if err != nil {
		prometheus.RecordImageUpload(namespace, "failed")
		return "", err
	}
	prometheus.RecordImageUpload(namespace, "stored")
	log.Info("Image stored", zap.String("ref", ref), zap.Int("bytes", len(data)))
	return ref, nil
}
