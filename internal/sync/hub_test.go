package sync

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktracker/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testBook() models.Book {
	return models.Book{
		ID:     3,
		Title:  "Dune",
		Status: &models.Status{ID: 2, Name: models.StatusReading},
	}
}

func TestNewBookEvent(t *testing.T) {
	ev := NewBookEvent(EventBookStatus, testBook())

	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, EventBookStatus, ev.Type)
	assert.Equal(t, int64(3), ev.BookID)
	assert.Equal(t, "Dune", ev.Title)
	assert.Equal(t, models.StatusReading, ev.Status)
	assert.False(t, ev.At.IsZero())

	other := NewBookEvent(EventBookStatus, testBook())
	assert.NotEqual(t, ev.ID, other.ID)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestWSHandler_ReceivesWelcomeAndEvents(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var w welcome
	require.NoError(t, json.Unmarshal(msg, &w))
	assert.Equal(t, "welcome", w.Type)
	assert.Equal(t, "websocket", w.Transport)

	waitFor(t, func() bool { return hub.Stats().WSClients == 1 })

	hub.Publish(NewBookEvent(EventBookCreated, testBook()))

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	var ev BookEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventBookCreated, ev.Type)
	assert.Equal(t, int64(3), ev.BookID)

	require.NoError(t, conn.Close())
	waitFor(t, func() bool { return hub.Stats().WSClients == 0 })
}

func TestHub_PublishKeepsOrder(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()
	srv := NewServer("127.0.0.1:0", hub, nil)
	require.NoError(t, srv.Listen())
	go func() { _ = srv.Serve() }()
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	rd := bufio.NewReader(conn)

	_, err = rd.ReadString('\n')
	require.NoError(t, err)
	waitFor(t, func() bool { return hub.Stats().TCPClients == 1 })

	const n = 20
	var want []string
	for i := 0; i < n; i++ {
		kind := EventBookPurchased
		if i%2 == 1 {
			kind = EventBookStatus
		}
		ev := NewBookEvent(kind, testBook())
		want = append(want, ev.ID)
		hub.Publish(ev)
	}

	var got []string
	for i := 0; i < n; i++ {
		line, err := rd.ReadString('\n')
		require.NoError(t, err)
		var ev BookEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		got = append(got, ev.ID)
	}
	assert.Equal(t, want, got)
}

func TestHub_PublishAfterClose(t *testing.T) {
	hub := NewHub(nil)
	hub.Close()
	hub.Close()
	assert.NotPanics(t, func() {
		hub.Publish(NewBookEvent(EventBookCreated, testBook()))
	})
}

func TestServer_BroadcastsLines(t *testing.T) {
	hub := NewHub(nil)
	srv := NewServer("127.0.0.1:0", hub, nil)
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	rd := bufio.NewReader(conn)

	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"transport":"tcp"`)

	waitFor(t, func() bool { return hub.Stats().TCPClients == 1 })

	hub.BroadcastJSON(NewBookEvent(EventBookPurchased, testBook()))

	line, err = rd.ReadString('\n')
	require.NoError(t, err)
	var ev BookEvent
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, EventBookPurchased, ev.Type)

	require.NoError(t, srv.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestServer_ServeWithoutListen(t *testing.T) {
	srv := NewServer("127.0.0.1:0", NewHub(nil), nil)
	assert.Error(t, srv.Serve())
	assert.Nil(t, srv.ListenAddr())
	assert.NoError(t, srv.Close())
}
