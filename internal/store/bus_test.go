package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selbekk/rotfest-crowdsource-app/internal/models"
)

func rec(id, status string) *models.ImageRecord {
	return &models.ImageRecord{ID: id, OriginalURL: "http://blobs/original/" + id, Status: status}
}

func TestBusWatchReceivesEvents(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Watch()
	defer cancel()

	evt := Event{Before: nil, After: rec("a", models.StatusProcessing)}
	b.Publish(evt, nil)

	got := <-ch
	require.NotNil(t, got.After)
	assert.Nil(t, got.Before)
	assert.Equal(t, "a", got.After.ID)
}

func TestBusWatchCancelClosesChannel(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Watch()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// cancelled watchers no longer receive
	b.Publish(Event{After: rec("a", models.StatusProcessing)}, nil)

	// cancel is idempotent
	cancel()
}

func TestBusListenerKeepsLatestSnapshot(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Listen()
	defer cancel()

	first := []models.ImageRecord{*rec("a", models.StatusProcessing)}
	second := []models.ImageRecord{*rec("b", models.StatusProcessing), *rec("a", models.StatusCompleted)}

	b.Publish(Event{After: rec("a", models.StatusProcessing)}, first)
	b.Publish(Event{After: rec("b", models.StatusProcessing)}, second)

	got := <-ch
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
}

func TestBusListenSeedsInitialSnapshot(t *testing.T) {
	b := NewBus()
	defer b.Close()

	initial := []models.ImageRecord{*rec("a", models.StatusCompleted)}
	ch, cancel := b.listen(initial)
	defer cancel()

	got := <-ch
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestBusWatcherBuffersBurstWithoutLoss(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Watch()
	defer cancel()

	// nothing consumes while the burst is published; every event must
	// still arrive, in order
	const n = 100
	for i := 0; i < n; i++ {
		b.Publish(Event{After: rec(fmt.Sprintf("rec-%03d", i), models.StatusProcessing)}, nil)
	}

	for i := 0; i < n; i++ {
		evt := <-ch
		require.NotNil(t, evt.After)
		assert.Equal(t, fmt.Sprintf("rec-%03d", i), evt.After.ID)
	}
}

func TestBusPublishOrderedSnapshotsNeverRegress(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, cancel := b.Listen()

	// each capture returns a strictly longer snapshot, so a reordered
	// delivery would show up as a length going backwards
	var version atomic.Int64
	snapshot := func() []models.ImageRecord {
		n := int(version.Add(1))
		recs := make([]models.ImageRecord, n)
		for i := range recs {
			recs[i] = *rec(fmt.Sprintf("rec-%d", i), models.StatusProcessing)
		}
		return recs
	}

	var got []int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range ch {
			got = append(got, len(snap))
		}
	}()

	const writers, writes = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < writes; j++ {
				b.PublishOrdered(Event{After: rec("a", models.StatusProcessing)}, snapshot)
			}
		}()
	}
	wg.Wait()
	cancel()
	<-done

	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
	assert.Equal(t, writers*writes, got[len(got)-1])
}

func TestBusClose(t *testing.T) {
	b := NewBus()

	watchCh, _ := b.Watch()
	listenCh, _ := b.Listen()

	b.Close()

	_, ok := <-watchCh
	assert.False(t, ok)
	_, ok = <-listenCh
	assert.False(t, ok)

	// registrations after close come back already closed
	ch, cancel := b.Watch()
	_, ok = <-ch
	assert.False(t, ok)
	cancel()

	// publish and double close are no-ops
	b.Publish(Event{After: rec("a", models.StatusProcessing)}, nil)
	b.Close()
}
