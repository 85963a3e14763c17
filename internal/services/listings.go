package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const feedWriteTimeout = 5 * time.Second

// ListingEvent is pushed to feed subscribers when an ad is posted.
type ListingEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	AdID       int64     `json:"adId"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	PriceLabel string    `json:"priceLabel"`
	Location   string    `json:"location"`
	CategoryID int64     `json:"categoryId"`
	At         time.Time `json:"at"`
}

// ListingHub fans new-ad events out to websocket clients. Broadcast never
// blocks the caller; events are dropped when the buffer is full.
type ListingHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	ch      chan ListingEvent
}

func NewListingHub() *ListingHub {
	return &ListingHub{
		clients: map[*websocket.Conn]bool{},
		ch:      make(chan ListingEvent, 16),
	}
}

func (h *ListingHub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.ch:
			h.send(event)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *ListingHub) Broadcast(event ListingEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	select {
	case h.ch <- event:
	default:
		log.Printf("listing feed full, dropped event for ad %d", event.AdID)
	}
}

func (h *ListingHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *ListingHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *ListingHub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *ListingHub) send(event ListingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *ListingHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
