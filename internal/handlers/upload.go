// internal/handlers/upload.go
package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
	"github.com/selbekk/rotfest-crowdsource-app/internal/storage"
	"github.com/selbekk/rotfest-crowdsource-app/pkg/imaging"
)

// User-facing messages, matching the upload form language.
const (
	errNoFile       = "Ingen fil valgt"
	errNotAnImage   = "Kun bildefiler er tillatt"
	errTooLarge     = "Bildet er for stort. Maksimal størrelse er 10MB"
	errUploadFailed = "Kunne ikke lagre bildet"
)

// RecordCreator creates the initial image record.
type RecordCreator interface {
	Create(ctx context.Context, rec *models.ImageRecord) error
}

// BlobUploader stores the raw upload and returns its public URL.
type BlobUploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

// UploadImage accepts a multipart "image" file plus an optional
// "userName" field. Validation happens before any write; on success the
// blob is stored first and the record second, so every record observer
// can fetch originalUrl immediately. The response returns as soon as the
// record exists; processing continues asynchronously.
func UploadImage(records RecordCreator, blobs BlobUploader, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errNoFile})
			return
		}

		// reject on the declared type when the client sent a specific
		// one; the payload itself is sniffed below either way
		declared := file.Header.Get("Content-Type")
		if declared != "" && declared != "application/octet-stream" && !imaging.IsImage(declared) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errNotAnImage})
			return
		}

		if !imaging.WithinSizeLimit(file.Size) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errTooLarge})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errNoFile})
			return
		}
		defer src.Close()

		data, err := io.ReadAll(io.LimitReader(src, imaging.MaxUploadSize+1))
		if err != nil || !imaging.WithinSizeLimit(int64(len(data))) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errTooLarge})
			return
		}

		contentType := imaging.DetectContentType(data)
		if !imaging.IsImage(contentType) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errNotAnImage})
			return
		}

		userName := c.PostForm("userName")
		if userName == "" {
			userName = models.AnonymousName
		}

		id := uuid.New().String()
		ctx := c.Request.Context()

		objectName := storage.ObjectName(storage.PurposeOriginal, id)
		originalURL, err := blobs.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
		if err != nil {
			log.Error("failed to store original image", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errUploadFailed})
			return
		}

		rec := &models.ImageRecord{
			ID:          id,
			OriginalURL: originalURL,
			UserName:    userName,
			CreatedAt:   time.Now().UnixMilli(),
			Status:      models.StatusProcessing,
		}
		if err := records.Create(ctx, rec); err != nil {
			// the blob stays behind as an orphan; never a half-made record
			log.Error("record create failed, orphaned blob left in storage",
				"id", id, "object", objectName, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errUploadFailed})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
	}
}
