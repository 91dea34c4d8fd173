// Package gallery holds the live view state for the rotating display:
// an ordered image cache kept in sync through a store subscription, a
// window position and the autoplay timer. All mutations go through one
// mutex, so timer-driven advancement and manual navigation never move
// the index concurrently.
package gallery

import (
	"context"
	"sync"
	"time"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
)

// Subscriber delivers the full ordered record list on subscribe and
// after every change.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan []models.ImageRecord, func(), error)
}

// State is the rendered view of the gallery at one point in time.
type State struct {
	Images       []models.ImageRecord `json:"images"`
	TotalCount   int                  `json:"totalCount"`
	CurrentIndex int                  `json:"currentIndex"`
	ShownFrom    int                  `json:"shownFrom"`
	ShownTo      int                  `json:"shownTo"`
	Autoplay     bool                 `json:"autoplay"`
}

type Gallery struct {
	mu       sync.Mutex
	images   []models.ImageRecord
	index    int
	numShown int
	pageSize int
	mobile   bool
	autoplay bool
	interval time.Duration
}

func New(pageSize int, interval time.Duration) *Gallery {
	return &Gallery{
		pageSize: pageSize,
		numShown: pageSize,
		interval: interval,
		autoplay: true,
	}
}

// Run keeps the cache in sync and drives autoplay until ctx is
// cancelled. The subscription and the ticker are released on every exit
// path.
func (g *Gallery) Run(ctx context.Context, sub Subscriber) error {
	snapshots, cancel, err := sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			g.SetImages(snap)
		case <-ticker.C:
			g.tick()
		}
	}
}

// SetImages replaces the cache wholesale with a new ordered snapshot.
func (g *Gallery) SetImages(images []models.ImageRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.images = images
	if g.index >= len(images) {
		g.index = 0
	}
}

func (g *Gallery) tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.autoplay {
		g.advance()
	}
}

// advance moves one page forward, wrapping to the start past the end.
// No-op while the cache fits on a single page.
func (g *Gallery) advance() {
	if len(g.images) <= g.pageSize {
		return
	}
	next := g.index + g.pageSize
	if next >= len(g.images) {
		next = 0
	}
	g.index = next
}

// Next moves one page forward, clamped at the last page.
func (g *Gallery) Next() {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := g.index + g.pageSize
	if next < len(g.images) {
		g.index = next
	}
}

// Prev moves one page back, clamped at the first page.
func (g *Gallery) Prev() {
	g.mu.Lock()
	defer g.mu.Unlock()

	prev := g.index - g.pageSize
	if prev < 0 {
		prev = 0
	}
	g.index = prev
}

// LoadMore grows the mobile prefix by one page, up to the cache length.
func (g *Gallery) LoadMore() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.numShown += g.pageSize
	if g.numShown > len(g.images) {
		g.numShown = len(g.images)
	}
	if g.numShown < g.pageSize {
		g.numShown = g.pageSize
	}
}

// SetMobile switches between the mobile prefix view and the desktop
// window view.
func (g *Gallery) SetMobile(mobile bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mobile = mobile
}

// ToggleAutoplay flips autoplay and returns the new value. While off,
// the timer keeps firing but no longer moves the index.
func (g *Gallery) ToggleAutoplay() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.autoplay = !g.autoplay
	return g.autoplay
}

// Window returns the records currently displayed. On mobile this is a
// growable prefix. On desktop it is a fixed-size page starting at the
// current index; a short tail page is padded from the front whenever
// the cache holds more than one page, so a full cache always renders a
// full grid.
func (g *Gallery) Window() []models.ImageRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.window()
}

func (g *Gallery) window() []models.ImageRecord {
	total := len(g.images)
	if total == 0 {
		return nil
	}

	if g.mobile {
		n := g.numShown
		if n > total {
			n = total
		}
		out := make([]models.ImageRecord, n)
		copy(out, g.images[:n])
		return out
	}

	start := g.index
	if start >= total {
		start = 0
	}
	end := start + g.pageSize
	if end > total {
		end = total
	}

	out := make([]models.ImageRecord, 0, g.pageSize)
	out = append(out, g.images[start:end]...)
	if len(out) < g.pageSize && total > g.pageSize {
		out = append(out, g.images[:g.pageSize-len(out)]...)
	}
	return out
}

// Snapshot returns the current view state for the display surface.
func (g *Gallery) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := len(g.images)
	from := g.index + 1
	if from > total {
		from = total
	}
	to := g.index + g.pageSize
	if to > total {
		to = total
	}

	return State{
		Images:       g.window(),
		TotalCount:   total,
		CurrentIndex: g.index,
		ShownFrom:    from,
		ShownTo:      to,
		Autoplay:     g.autoplay,
	}
}
