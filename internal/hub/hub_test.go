package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string, func()) {
	t.Helper()
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.ServeWS(w, r)
	}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return h, url, func() {
		cancel()
		srv.Close()
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt Event
	require.NoError(t, json.Unmarshal(raw, &evt))
	return evt
}

func TestWelcomeOnConnect(t *testing.T) {
	_, url, stop := startHub(t)
	defer stop()

	conn := dial(t, url)
	defer conn.Close()

	evt := readEvent(t, conn)
	assert.Equal(t, "welcome", evt.Type)
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h, url, stop := startHub(t)
	defer stop()

	first := dial(t, url)
	defer first.Close()
	second := dial(t, url)
	defer second.Close()
	readEvent(t, first)
	readEvent(t, second)

	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	h.Broadcast(NewEvent("attendance_marked", map[string]string{"student_id": "S1"}))

	for _, conn := range []*websocket.Conn{first, second} {
		evt := readEvent(t, conn)
		assert.Equal(t, "attendance_marked", evt.Type)
		var data map[string]string
		require.NoError(t, json.Unmarshal(evt.Data, &data))
		assert.Equal(t, "S1", data["student_id"])
	}
}

func TestBroadcastOrderPerConnection(t *testing.T) {
	h, url, stop := startHub(t)
	defer stop()

	conn := dial(t, url)
	defer conn.Close()
	readEvent(t, conn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	for i := 0; i < 5; i++ {
		h.Broadcast(NewEvent("attendance_marked", map[string]int{"seq": i}))
	}
	for i := 0; i < 5; i++ {
		evt := readEvent(t, conn)
		var data map[string]int
		require.NoError(t, json.Unmarshal(evt.Data, &data))
		assert.Equal(t, i, data["seq"])
	}
}

func TestPingGetsPong(t *testing.T) {
	_, url, stop := startHub(t)
	defer stop()

	conn := dial(t, url)
	defer conn.Close()
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Type: "ping"}))
	evt := readEvent(t, conn)
	assert.Equal(t, "pong", evt.Type)
}

func TestUnknownTypeIgnored(t *testing.T) {
	_, url, stop := startHub(t)
	defer stop()

	conn := dial(t, url)
	defer conn.Close()
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(Event{Type: "bogus"}))
	// Connection must stay usable.
	require.NoError(t, conn.WriteJSON(Event{Type: "ping"}))
	evt := readEvent(t, conn)
	assert.Equal(t, "pong", evt.Type)
}

func TestEnqueueAfterDropDoesNotPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := New()
	go h.Run(ctx)

	// Fill the outbound buffer so the next broadcast drops the client.
	c := &client{hub: h, send: make(chan []byte, 1)}
	c.send <- []byte("filler")
	h.register <- c
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	h.Broadcast(NewEvent("attendance_marked", map[string]string{"student_id": "S1"}))
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	// The reader goroutine can still answer a keep-alive after the hub has
	// dropped the client; that enqueue must refuse, not panic.
	assert.False(t, c.enqueue(mustMarshal(Event{Type: "pong"})))
	c.closeSend() // idempotent
}

func TestDisconnectedClientSkipped(t *testing.T) {
	h, url, stop := startHub(t)
	defer stop()

	conn := dial(t, url)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Broadcasting with no live clients must not panic or error.
	h.Broadcast(NewEvent("attendance_marked", map[string]string{"student_id": "S1"}))
}
