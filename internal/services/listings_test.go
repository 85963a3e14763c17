package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingHubDeliversEvents(t *testing.T) {
	hub := NewListingHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(conn)
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(ListingEvent{Type: "ad.created", AdID: 42, Title: "Vespa Sprint"})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got ListingEvent
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, int64(42), got.AdID)
	assert.Equal(t, "Vespa Sprint", got.Title)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.At.IsZero())
}

func TestListingHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewListingHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast(ListingEvent{AdID: int64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked without a running hub")
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestCheckHealth(t *testing.T) {
	report := CheckHealth(context.Background(), stubPinger{}, t.TempDir(), NewListingHub())
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "ok", report.UploadsDisk)
	assert.Positive(t, report.UploadsDiskTotal)

	report = CheckHealth(context.Background(), stubPinger{err: assert.AnError}, t.TempDir(), nil)
	assert.Equal(t, "down", report.Status)
	assert.Equal(t, "unreachable", report.Database)
}

func TestCheckHealthMissingUploadsDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-dir")
	report := CheckHealth(context.Background(), stubPinger{}, missing, nil)
	assert.Equal(t, "ok", report.Status)
	assert.Equal(t, "unavailable", report.UploadsDisk)
	assert.Zero(t, report.UploadsDiskTotal)
	assert.Zero(t, report.UploadsDiskUsed)
}
