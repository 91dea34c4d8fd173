package gallery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
)

func makeImages(n int) []models.ImageRecord {
	images := make([]models.ImageRecord, n)
	for i := range images {
		images[i] = models.ImageRecord{
			ID:          fmt.Sprintf("img-%d", i),
			OriginalURL: fmt.Sprintf("http://blobs/original/img-%d", i),
			Status:      models.StatusCompleted,
			CreatedAt:   int64(1000 - i),
		}
	}
	return images
}

func ids(images []models.ImageRecord) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.ID
	}
	return out
}

func TestWindowEmptyCache(t *testing.T) {
	g := New(6, time.Second)
	assert.Empty(t, g.Window())

	snap := g.Snapshot()
	assert.Zero(t, snap.TotalCount)
	assert.Zero(t, snap.ShownFrom)
}

func TestWindowFewerThanPageSize(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(4))

	// no padding when the whole cache fits on one page
	assert.Equal(t, []string{"img-0", "img-1", "img-2", "img-3"}, ids(g.Window()))
}

func TestWindowExactPage(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(6))

	assert.Len(t, g.Window(), 6)
}

func TestWindowWrapPadding(t *testing.T) {
	// 8 records, pageSize 6, index 6: window = [6,7] padded with [0..3]
	g := New(6, time.Second)
	g.SetImages(makeImages(8))
	g.Next()

	got := ids(g.Window())
	assert.Equal(t, []string{"img-6", "img-7", "img-0", "img-1", "img-2", "img-3"}, got)
}

func TestWindowAlwaysFullWhenCacheExceedsPage(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(13))

	for i := 0; i < 5; i++ {
		assert.Len(t, g.Window(), 6, "window under-filled at step %d", i)
		g.tick()
	}
}

func TestAutoplayAdvanceAndWrap(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(13))

	g.tick()
	assert.Equal(t, 6, g.Snapshot().CurrentIndex)
	g.tick()
	assert.Equal(t, 12, g.Snapshot().CurrentIndex)
	g.tick()
	assert.Equal(t, 0, g.Snapshot().CurrentIndex, "index wraps to 0 past the end")
}

func TestAutoplayNoAdvanceWithinSinglePage(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(5))

	g.tick()
	assert.Zero(t, g.Snapshot().CurrentIndex)
}

func TestToggleAutoplayHaltsAdvance(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(13))

	assert.False(t, g.ToggleAutoplay())
	g.tick()
	g.tick()
	assert.Zero(t, g.Snapshot().CurrentIndex)

	assert.True(t, g.ToggleAutoplay())
	g.tick()
	assert.Equal(t, 6, g.Snapshot().CurrentIndex)
}

func TestManualNavigationClamps(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(8))

	g.Prev()
	assert.Zero(t, g.Snapshot().CurrentIndex, "Prev clamps at the start")

	g.Next()
	assert.Equal(t, 6, g.Snapshot().CurrentIndex)

	g.Next()
	assert.Equal(t, 6, g.Snapshot().CurrentIndex, "Next clamps at the last page")

	g.Prev()
	assert.Zero(t, g.Snapshot().CurrentIndex)
}

func TestMobilePrefixAndLoadMore(t *testing.T) {
	g := New(6, time.Second)
	g.SetMobile(true)
	g.SetImages(makeImages(15))

	assert.Equal(t, 6, len(g.Window()))

	g.LoadMore()
	assert.Equal(t, 12, len(g.Window()))

	g.LoadMore()
	assert.Equal(t, 15, len(g.Window()), "prefix is capped at the cache length")

	g.LoadMore()
	assert.Equal(t, 15, len(g.Window()))
}

func TestSetImagesClampsIndex(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(13))
	g.tick()
	g.tick()
	require.Equal(t, 12, g.Snapshot().CurrentIndex)

	// cache shrank below the index: view resets to the front
	g.SetImages(makeImages(3))
	assert.Zero(t, g.Snapshot().CurrentIndex)
	assert.Equal(t, []string{"img-0", "img-1", "img-2"}, ids(g.Window()))
}

func TestSnapshotFooterRange(t *testing.T) {
	g := New(6, time.Second)
	g.SetImages(makeImages(8))
	g.Next()

	snap := g.Snapshot()
	assert.Equal(t, 8, snap.TotalCount)
	assert.Equal(t, 7, snap.ShownFrom)
	assert.Equal(t, 8, snap.ShownTo)
}

type fakeSubscriber struct {
	ch chan []models.ImageRecord
}

func (f *fakeSubscriber) Subscribe(ctx context.Context) (<-chan []models.ImageRecord, func(), error) {
	return f.ch, func() {}, nil
}

func TestRunAppliesSnapshotsAndStopsOnCancel(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan []models.ImageRecord, 1)}
	g := New(6, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, sub)
		close(done)
	}()

	sub.ch <- makeImages(3)
	require.Eventually(t, func() bool {
		return g.Snapshot().TotalCount == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}

func TestRunStopsWhenSubscriptionCloses(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan []models.ImageRecord)}
	g := New(6, time.Hour)

	done := make(chan struct{})
	go func() {
		g.Run(context.Background(), sub)
		close(done)
	}()

	close(sub.ch)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop when the subscription closed")
	}
}
