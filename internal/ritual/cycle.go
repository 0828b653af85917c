package ritual

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cultgo/backend/internal/config"
	"cultgo/backend/internal/gameerr"
	"cultgo/backend/internal/models"
)

// Announcer posts a freshly generated event to the cult channel.
type Announcer interface {
	AnnounceEvent(event *models.Event) error
	AnnounceExhaustion() error
}

// FeedPublisher pushes game feed updates.
type FeedPublisher interface {
	PublishUpdate(update models.GameUpdate) error
}

// Cycle runs event generation on a timer. Start and Stop are idempotent
// admin operations; the cycle pauses itself on victim exhaustion instead
// of busy-looping.
type Cycle struct {
	generator *Generator
	announcer Announcer
	feed      FeedPublisher
	interval  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCycle creates an auto cycle around the generator.
func NewCycle(generator *Generator, announcer Announcer, feed FeedPublisher) *Cycle {
	return &Cycle{
		generator: generator,
		announcer: announcer,
		feed:      feed,
		interval:  config.EventInterval,
	}
}

// RunOnce generates one event and announces it. An announcement failure
// after the victim was marked used is a lost event: logged, not retried.
func (c *Cycle) RunOnce() error {
	event, err := c.generator.Generate()
	if err != nil {
		return err
	}
	if err := c.announcer.AnnounceEvent(event); err != nil {
		log.Printf("ERROR: Event for victim %s generated but not announced (lost): %v", event.VictimID, err)
		return nil
	}
	if err := c.feed.PublishUpdate(models.GameUpdate{
		Type:     models.FeedEventStarted,
		VictimID: event.VictimID,
		Place:    event.Place,
	}); err != nil {
		log.Printf("WARN: Failed to publish event feed update: %v", err)
	}
	return nil
}

// Start launches the timer loop. Returns false if it is already running.
func (c *Cycle) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
	return true
}

// Stop halts the timer loop. Returns false if it was not running.
func (c *Cycle) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return false
	}
	c.cancel()
	c.cancel = nil
	return true
}

func (c *Cycle) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.RunOnce(); err != nil {
			if errors.Is(err, gameerr.ErrVictimsExhausted) {
				log.Println("Victim catalog exhausted, pausing the auto cycle")
				if err := c.announcer.AnnounceExhaustion(); err != nil {
					log.Printf("ERROR: Failed to announce exhaustion: %v", err)
				}
				c.Stop()
				return
			}
			log.Printf("ERROR: Auto cycle generation failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
