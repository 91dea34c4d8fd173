// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/selbekk/rotfest-crowdsource-app/internal/config"
	"github.com/selbekk/rotfest-crowdsource-app/internal/database"
	"github.com/selbekk/rotfest-crowdsource-app/internal/gallery"
	"github.com/selbekk/rotfest-crowdsource-app/internal/handlers"
	"github.com/selbekk/rotfest-crowdsource-app/internal/middleware"
	"github.com/selbekk/rotfest-crowdsource-app/internal/storage"
	"github.com/selbekk/rotfest-crowdsource-app/internal/store"
	"github.com/selbekk/rotfest-crowdsource-app/internal/transform"
	"github.com/selbekk/rotfest-crowdsource-app/internal/trigger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Initialize database
	db, err := database.InitDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate models
	if err := database.MigrateDB(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	blobs, err := storage.NewBlobStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize MinIO client:", err)
	}

	records := store.New(db, logger)
	defer records.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ai, err := transform.NewGemini(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}

	// Transform trigger: reacts to every record write
	processor := trigger.NewProcessor(records, blobs, ai, cfg.TransformTimeout, logger)
	go processor.Run(ctx)

	// Shared display gallery: live cache + autoplay
	display := gallery.New(cfg.GalleryPageSize, cfg.GalleryInterval)
	go func() {
		if err := display.Run(ctx, records); err != nil {
			logger.Error("gallery stopped", "error", err)
		}
	}()

	// Initialize Gin router
	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/upload", handlers.UploadImage(records, blobs, logger))
		api.GET("/images", handlers.ListImages(records))
		api.GET("/images/stream", handlers.StreamImages(records))
		api.GET("/images/:id", handlers.GetImage(records, blobs))

		api.GET("/gallery", handlers.GetGallery(display))
		api.POST("/gallery/next", handlers.GalleryNext(display))
		api.POST("/gallery/prev", handlers.GalleryPrev(display))
		api.POST("/gallery/autoplay", handlers.GalleryAutoplay(display))
		api.POST("/gallery/more", handlers.GalleryLoadMore(display))
		api.POST("/gallery/mode", handlers.GalleryMode(display))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
