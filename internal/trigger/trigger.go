// Package trigger reacts to image record writes. For every record that
// just entered the processing state it fetches the original image, asks
// the AI service for the stylized variant, stores the result and flips
// the record to completed or failed. The status transition happens at
// most once per record; every failure path ends in a record update or a
// log line, never a panic.
package trigger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
	"github.com/selbekk/rotfest-crowdsource-app/internal/storage"
	"github.com/selbekk/rotfest-crowdsource-app/internal/store"
	"github.com/selbekk/rotfest-crowdsource-app/internal/transform"
)

// RecordStore is the slice of the record store the trigger needs.
type RecordStore interface {
	Watch() (<-chan store.Event, func())
	MarkCompleted(ctx context.Context, id, processedURL string) error
	MarkFailed(ctx context.Context, id, errMsg string) error
}

// BlobStore stores processed images and returns their public URL.
type BlobStore interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

type Processor struct {
	records RecordStore
	blobs   BlobStore
	ai      transform.Transformer
	client  *http.Client
	log     *slog.Logger
	timeout time.Duration
}

func NewProcessor(records RecordStore, blobs BlobStore, ai transform.Transformer, timeout time.Duration, log *slog.Logger) *Processor {
	return &Processor{
		records: records,
		blobs:   blobs,
		ai:      ai,
		client:  &http.Client{},
		log:     log,
		timeout: timeout,
	}
}

// ShouldProcess is the guard evaluated before any side effect. It
// admits exactly the writes where the record's current status is
// processing and its prior status, if the write was an update, was not
// already processing. Rewrites of a record during its own processing
// run fail the guard, which is what makes duplicate event delivery
// harmless.
func ShouldProcess(before, after *models.ImageRecord) bool {
	if after == nil || after.Status != models.StatusProcessing {
		return false
	}
	if before != nil && before.Status == models.StatusProcessing {
		return false
	}
	return true
}

// Run consumes record-write events until ctx is cancelled. Events are
// processed one at a time.
func (p *Processor) Run(ctx context.Context) {
	events, cancel := p.records.Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			p.HandleEvent(ctx, evt)
		}
	}
}

// HandleEvent runs the full processing pipeline for a single write.
func (p *Processor) HandleEvent(ctx context.Context, evt store.Event) {
	if !ShouldProcess(evt.Before, evt.After) {
		return
	}
	rec := evt.After
	log := p.log.With("id", rec.ID)

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	processedURL, err := p.process(runCtx, rec)
	if err != nil {
		log.Warn("image processing failed", "error", err)
		p.markFailed(ctx, rec.ID, err, log)
		return
	}

	if err := p.records.MarkCompleted(context.WithoutCancel(ctx), rec.ID, processedURL); err != nil {
		if errors.Is(err, store.ErrAlreadyTransitioned) {
			log.Info("record already transitioned, ignoring duplicate completion")
			return
		}
		// The record stays in processing. Accepted degraded outcome,
		// surfaced to viewers as a perpetual processing placeholder.
		log.Error("failed to mark record completed", "error", err)
		return
	}
	log.Info("image processed", "processedUrl", processedURL)
}

func (p *Processor) markFailed(ctx context.Context, id string, cause error, log *slog.Logger) {
	err := p.records.MarkFailed(context.WithoutCancel(ctx), id, cause.Error())
	if err == nil {
		return
	}
	if errors.Is(err, store.ErrAlreadyTransitioned) {
		log.Info("record already transitioned, ignoring duplicate failure")
		return
	}
	log.Error("failed to mark record failed", "error", err)
}

func (p *Processor) process(ctx context.Context, rec *models.ImageRecord) (string, error) {
	original, contentType, err := p.fetchOriginal(ctx, rec.OriginalURL)
	if err != nil {
		return "", err
	}

	processed, mimeType, err := p.ai.Transform(ctx, original, contentType)
	if err != nil {
		return "", fmt.Errorf("transform failed: %w", err)
	}
	if len(processed) == 0 {
		return "", errors.New("transform returned empty image")
	}

	objectName := storage.ObjectName(storage.PurposeProcessed, rec.ID)
	url, err := p.blobs.Upload(ctx, objectName, bytes.NewReader(processed), int64(len(processed)), mimeType)
	if err != nil {
		return "", fmt.Errorf("failed to store processed image: %w", err)
	}
	return url, nil
}

func (p *Processor) fetchOriginal(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build original image request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch original image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d fetching original image", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read original image: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}
