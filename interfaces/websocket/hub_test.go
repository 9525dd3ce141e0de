package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub(zap.NewNop(), nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(ServeWS(hub, zap.NewNop()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	return msg
}

func TestClientReceivesConnectionEstablished(t *testing.T) {
	_, conn := dialTestHub(t)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeConnected, msg.Type)
	assert.NotZero(t, msg.Timestamp)
}

func TestNotifyGraphChangedBroadcasts(t *testing.T) {
	hub, conn := dialTestHub(t)

	// Skip the connection handshake frame
	readMessage(t, conn)

	hub.NotifyGraphChanged(7)

	msg := readMessage(t, conn)
	require.Equal(t, MessageTypeGraphChanged, msg.Type)

	var payload GraphChangedPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, 7, payload.Version)
}

func TestDisabledHubRefusesNewConnections(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(ServeWS(hub, zap.NewNop()))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	hub.SetEnabled(false)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	// Re-enabling restores connectivity
	hub.SetEnabled(true)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeConnected, msg.Type)
}

func TestNotifyGraphChangedReachesAllClients(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil)
	go hub.Run()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(ServeWS(hub, zap.NewNop()))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conns := make([]*websocket.Conn, 0, 3)
	for i := 0; i < 3; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		readMessage(t, conn)
		conns = append(conns, conn)
	}

	hub.NotifyGraphChanged(3)

	for _, conn := range conns {
		msg := readMessage(t, conn)
		assert.Equal(t, MessageTypeGraphChanged, msg.Type)
	}
}
