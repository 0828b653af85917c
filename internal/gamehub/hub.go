// Package gamehub fans game feed updates out to live subscribers. It is a
// broadcast-only hub: updates originate in the game services (via Redis
// Pub/Sub, so several backend instances stay in sync) and flow one way to
// websocket clients watching the investigation feed.
package gamehub

import (
	"encoding/json"
	"log"

	"cultgo/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// Client is one live feed subscriber.
type Client interface {
	// GetID returns the subscriber's connection id.
	GetID() string
	// GetSendChannel returns the channel the hub pushes updates into.
	GetSendChannel() chan<- models.GameUpdate
	// Run starts the client's write pump.
	Run()
	// Close shuts the client down and releases its channel.
	Close()
}

// Hub owns the subscriber set. All membership changes go through the
// register/unregister channels so the Run loop is the only writer.
type Hub struct {
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	BroadcastCh  chan models.GameUpdate
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		BroadcastCh:  make(chan models.GameUpdate, 16),
	}
}

// Run is the hub's dispatcher loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			h.Clients[client.GetID()] = client
			log.Printf("Feed client %s connected (%d total)", client.GetID(), len(h.Clients))

		case client := <-h.UnregisterCh:
			if _, ok := h.Clients[client.GetID()]; ok {
				delete(h.Clients, client.GetID())
				client.Close()
			}

		case update := <-h.BroadcastCh:
			for id, client := range h.Clients {
				select {
				case client.GetSendChannel() <- update:
				default:
					// A slow client is dropped rather than allowed to
					// stall the whole feed.
					delete(h.Clients, id)
					client.Close()
				}
			}
		}
	}
}

// StartPubSubListener pipes the Redis game feed into the broadcast
// channel.
func (h *Hub) StartPubSubListener(pubsub *redis.PubSub) {
	go func() {
		for msg := range pubsub.Channel() {
			var update models.GameUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				log.Printf("ERROR: Bad feed payload: %v", err)
				continue
			}
			h.BroadcastCh <- update
		}
	}()
}
