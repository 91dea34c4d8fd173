// internal/handlers/images.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
	"github.com/selbekk/rotfest-crowdsource-app/internal/storage"
	"github.com/selbekk/rotfest-crowdsource-app/internal/store"
)

// RecordLister returns all records ordered newest first.
type RecordLister interface {
	List(ctx context.Context) ([]models.ImageRecord, error)
}

// RecordGetter loads a single record by id.
type RecordGetter interface {
	Get(ctx context.Context, id string) (*models.ImageRecord, error)
}

// Presigner issues a time-limited download URL for a stored object,
// for deployments where the bucket is not publicly readable.
type Presigner interface {
	GetPresignedURL(ctx context.Context, objectName string) (string, error)
}

// RecordSubscriber delivers the full ordered record list on subscribe
// and after every change.
type RecordSubscriber interface {
	Subscribe(ctx context.Context) (<-chan []models.ImageRecord, func(), error)
}

// ListImages is the one-shot snapshot query.
func ListImages(records RecordLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		images, err := records.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch images"})
			return
		}
		if images == nil {
			images = []models.ImageRecord{}
		}
		c.JSON(http.StatusOK, images)
	}
}

// GetImage returns a single record. With ?presign=true the blob URLs
// are replaced by presigned download URLs.
func GetImage(records RecordGetter, blobs Presigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rec, err := records.Get(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch image"})
			return
		}

		if c.Query("presign") == "true" {
			if url, err := blobs.GetPresignedURL(ctx, storage.ObjectName(storage.PurposeOriginal, rec.ID)); err == nil {
				rec.OriginalURL = url
			}
			if rec.ProcessedURL != "" {
				if url, err := blobs.GetPresignedURL(ctx, storage.ObjectName(storage.PurposeProcessed, rec.ID)); err == nil {
					rec.ProcessedURL = url
				}
			}
		}

		c.JSON(http.StatusOK, rec)
	}
}

// StreamImages pushes the ordered record list over SSE: once on
// connect, then after every record write. The subscription is released
// when the client disconnects.
func StreamImages(records RecordSubscriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel, err := records.Subscribe(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
			return
		}
		defer cancel()

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")

		c.Stream(func(w io.Writer) bool {
			select {
			case snapshot, ok := <-ch:
				if !ok {
					return false
				}
				c.SSEvent("images", snapshot)
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
