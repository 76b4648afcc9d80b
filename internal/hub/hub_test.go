package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vortkvizo/internal/session"
)

const testSession = "hub-test-session"

func dialTestHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, testSession)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.ClientCount(testSession) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount(testSession) == 0 {
		t.Fatal("client never registered")
	}
	return conn
}

// TestPublishReachesClient checks a published event arrives as JSON.
func TestPublishReachesClient(t *testing.T) {
	h := New()
	conn := dialTestHub(t, h)

	h.Publish(testSession, session.Event{
		Type:  session.EventState,
		State: &session.Snapshot{Status: session.StatusPlaying, Mode: session.ModePractice},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got session.Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != session.EventState {
		t.Errorf("event type = %s, want state", got.Type)
	}
	if got.State == nil || got.State.Status != session.StatusPlaying {
		t.Errorf("event state = %+v, want playing", got.State)
	}
}

// TestPublishToUnknownSession checks publishing with no listeners is a
// no-op.
func TestPublishToUnknownSession(t *testing.T) {
	h := New()
	h.Publish("nobody-home", session.Event{Type: session.EventState})
}

// TestPublishNeverBlocksOnStalledClient checks a client whose queue is
// full is dropped instead of stalling the publisher.
func TestPublishNeverBlocksOnStalledClient(t *testing.T) {
	h := New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Register by hand with no write loop so the queue can only
		// back up.
		c := &client{
			conn: conn,
			send: make(chan session.Event, sendBuffer),
			done: make(chan struct{}),
		}
		h.mu.Lock()
		h.clients[testSession] = append(h.clients[testSession], c)
		h.mu.Unlock()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.ClientCount(testSession) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount(testSession) == 0 {
		t.Fatal("client never registered")
	}

	published := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+1; i++ {
			h.Publish(testSession, session.Event{Type: session.EventState})
		}
		close(published)
	}()
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stalled client")
	}
	if got := h.ClientCount(testSession); got != 0 {
		t.Errorf("clients after overflow = %d, want 0", got)
	}
}

// TestClientRemovedOnDisconnect checks closed connections are pruned.
func TestClientRemovedOnDisconnect(t *testing.T) {
	h := New()
	conn := dialTestHub(t, h)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.ClientCount(testSession) != 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.ClientCount(testSession); got != 0 {
		t.Errorf("clients after disconnect = %d, want 0", got)
	}
}
