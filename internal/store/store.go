// internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
)

// ErrAlreadyTransitioned is returned when a status update targets a
// record that has already left the processing state. Status moves from
// processing to completed or failed at most once, even under duplicate
// trigger delivery.
var ErrAlreadyTransitioned = errors.New("record already transitioned out of processing")

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("image record not found")

// Store persists ImageRecords in Postgres and publishes every write to
// the change bus so that watchers (the transform trigger) and listeners
// (gallery views) see a live feed.
type Store struct {
	db  *gorm.DB
	bus *Bus
	log *slog.Logger
}

func New(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{db: db, bus: NewBus(), log: log}
}

// Create inserts a fresh record and publishes a {nil, record} event.
func (s *Store) Create(ctx context.Context, rec *models.ImageRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}

	after := *rec
	s.notify(ctx, Event{Before: nil, After: &after})
	return nil
}

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	var rec models.ImageRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load image record: %w", err)
	}
	return &rec, nil
}

// List returns all records ordered newest first.
func (s *Store) List(ctx context.Context) ([]models.ImageRecord, error) {
	var recs []models.ImageRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list image records: %w", err)
	}
	return recs, nil
}

// MarkCompleted sets processedUrl and flips status to completed. The
// update is conditional on the record still being in processing, which
// makes the transition happen at most once.
func (s *Store) MarkCompleted(ctx context.Context, id, processedURL string) error {
	return s.transition(ctx, id, map[string]interface{}{
		"processed_url": processedURL,
		"status":        models.StatusCompleted,
	})
}

// MarkFailed flips status to failed and records the cause. Conditional
// on the record still being in processing, like MarkCompleted.
func (s *Store) MarkFailed(ctx context.Context, id, errMsg string) error {
	return s.transition(ctx, id, map[string]interface{}{
		"status": models.StatusFailed,
		"error":  errMsg,
	})
}

func (s *Store) transition(ctx context.Context, id string, updates map[string]interface{}) error {
	before, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&models.ImageRecord{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update image record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyTransitioned
	}

	after, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.notify(ctx, Event{Before: before, After: after})
	return nil
}

// Watch exposes the record-write event feed.
func (s *Store) Watch() (<-chan Event, func()) {
	return s.bus.Watch()
}

// Subscribe delivers the current ordered snapshot immediately, then a
// fresh snapshot after every change.
func (s *Store) Subscribe(ctx context.Context) (<-chan []models.ImageRecord, func(), error) {
	snapshot, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	if snapshot == nil {
		snapshot = []models.ImageRecord{}
	}

	ch, cancel := s.bus.listen(snapshot)
	return ch, cancel, nil
}

// Close stops delivery to all watchers and listeners.
func (s *Store) Close() {
	s.bus.Close()
}

// notify lists and publishes as one ordered unit. Two racing writers
// must not deliver their snapshots in the wrong order, or a listener
// would miss the newer record until the next write.
func (s *Store) notify(ctx context.Context, evt Event) {
	s.bus.PublishOrdered(evt, func() []models.ImageRecord {
		snapshot, err := s.List(ctx)
		if err != nil {
			s.log.Warn("skipping snapshot publish, list failed", "error", err)
			return nil
		}
		return snapshot
	})
}
