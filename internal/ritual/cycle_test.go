package ritual_test

import (
	"errors"
	"sync"
	"testing"

	"cultgo/backend/internal/models"
	"cultgo/backend/internal/ritual"

	"github.com/stretchr/testify/assert"
)

type fakeAnnouncer struct {
	mu        sync.Mutex
	events    []*models.Event
	failNext  bool
	exhausted int
}

func (a *fakeAnnouncer) AnnounceEvent(event *models.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failNext {
		a.failNext = false
		return errors.New("telegram down")
	}
	a.events = append(a.events, event)
	return nil
}

func (a *fakeAnnouncer) AnnounceExhaustion() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exhausted++
	return nil
}

type fakeFeed struct {
	mu      sync.Mutex
	updates []models.GameUpdate
}

func (f *fakeFeed) PublishUpdate(update models.GameUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	return nil
}

// TestRunOnce_AnnouncesAndFeeds verifies the generate-announce-publish
// sequence of a single tick.
func TestRunOnce_AnnouncesAndFeeds(t *testing.T) {
	// Arrange
	store := newFakeGenStore(2)
	announcer := &fakeAnnouncer{}
	feed := &fakeFeed{}
	cycle := ritual.NewCycle(ritual.NewGenerator(store, nil), announcer, feed)

	// Act
	err := cycle.RunOnce()

	// Assert
	assert.NoError(t, err)
	assert.Len(t, announcer.events, 1)
	if assert.Len(t, feed.updates, 1) {
		assert.Equal(t, models.FeedEventStarted, feed.updates[0].Type)
	}
}

// TestRunOnce_LostAnnouncement verifies that an announce failure after
// generation consumes the victim anyway: the event is lost, not retried.
func TestRunOnce_LostAnnouncement(t *testing.T) {
	store := newFakeGenStore(1)
	announcer := &fakeAnnouncer{failNext: true}
	feed := &fakeFeed{}
	cycle := ritual.NewCycle(ritual.NewGenerator(store, nil), announcer, feed)

	err := cycle.RunOnce()

	assert.NoError(t, err, "a lost announcement is logged, not escalated")
	assert.Empty(t, announcer.events)
	assert.Empty(t, feed.updates)
	assert.Len(t, store.used, 1, "the victim stays consumed")
}

// TestStartStop_Idempotent verifies the admin start/stop contract.
func TestStartStop_Idempotent(t *testing.T) {
	store := newFakeGenStore(50)
	cycle := ritual.NewCycle(ritual.NewGenerator(store, nil), &fakeAnnouncer{}, &fakeFeed{})

	assert.True(t, cycle.Start())
	assert.False(t, cycle.Start(), "second start is a no-op")

	assert.True(t, cycle.Stop())
	assert.False(t, cycle.Stop(), "second stop is a no-op")
}
