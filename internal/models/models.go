// internal/models/models.go
package models

// Record status values. A record starts as processing and moves exactly
// once to completed or failed.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// AnonymousName is the display name stored when the uploader leaves the
// name field empty.
const AnonymousName = "Anonym"

type ImageRecord struct {
	ID           string `gorm:"primarykey" json:"id"`
	OriginalURL  string `gorm:"not null" json:"originalUrl"`
	ProcessedURL string `json:"processedUrl,omitempty"`
	UserName     string `gorm:"default:'Anonym'" json:"userName"`
	CreatedAt    int64  `gorm:"index" json:"createdAt"`                  // unix millis, ordering key
	Status       string `gorm:"default:'processing';index" json:"status"` // processing, completed, failed
	Error        string `json:"error,omitempty"`
}

// Terminal reports whether the record has left the processing state.
// Terminal records are never written again.
func (r *ImageRecord) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}
