package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t, "PORT", "MINIO_ENDPOINT", "MINIO_BUCKET", "MINIO_USE_SSL",
		"PUBLIC_BASE_URL", "GALLERY_PAGE_SIZE", "GALLERY_INTERVAL", "TRANSFORM_TIMEOUT")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "rotfest-images", cfg.MinioBucket)
	assert.Equal(t, 6, cfg.GalleryPageSize)
	assert.Equal(t, 5*time.Second, cfg.GalleryInterval)
	assert.Equal(t, 300*time.Second, cfg.TransformTimeout)
	assert.Equal(t, "http://localhost:9000", cfg.PublicBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t, "PUBLIC_BASE_URL")
	t.Setenv("PORT", "9999")
	t.Setenv("GALLERY_PAGE_SIZE", "9")
	t.Setenv("GALLERY_INTERVAL", "2s")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MINIO_ENDPOINT", "minio.internal:9000")

	cfg := Load()

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 9, cfg.GalleryPageSize)
	assert.Equal(t, 2*time.Second, cfg.GalleryInterval)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "https://minio.internal:9000", cfg.PublicBaseURL)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("GALLERY_PAGE_SIZE", "not-a-number")
	t.Setenv("GALLERY_INTERVAL", "-5s")

	cfg := Load()

	assert.Equal(t, 6, cfg.GalleryPageSize)
	assert.Equal(t, 5*time.Second, cfg.GalleryInterval)
}
