// internal/handlers/gallery.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selbekk/rotfest-crowdsource-app/internal/gallery"
)

// GetGallery returns the current window state of the shared display
// gallery.
func GetGallery(g *gallery.Gallery) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, g.Snapshot())
	}
}

// GalleryNext pages the display forward (clamped at the last page).
func GalleryNext(g *gallery.Gallery) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.Next()
		c.JSON(http.StatusOK, g.Snapshot())
	}
}

// GalleryPrev pages the display back (clamped at the first page).
func GalleryPrev(g *gallery.Gallery) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.Prev()
		c.JSON(http.StatusOK, g.Snapshot())
	}
}

// GalleryAutoplay toggles timed advancement on or off.
func GalleryAutoplay(g *gallery.Gallery) gin.HandlerFunc {
	return func(c *gin.Context) {
		enabled := g.ToggleAutoplay()
		c.JSON(http.StatusOK, gin.H{"autoplay": enabled})
	}
}

// GalleryLoadMore grows the mobile prefix by one page.
func GalleryLoadMore(g *gallery.Gallery) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.LoadMore()
		c.JSON(http.StatusOK, g.Snapshot())
	}
}

// GalleryMode switches the display between mobile and desktop
// rendering.
func GalleryMode(g *gallery.Gallery) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Mobile bool `json:"mobile"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		g.SetMobile(req.Mobile)
		c.JSON(http.StatusOK, g.Snapshot())
	}
}
