package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"foodspot/internal/events"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := uuid.MustParse(r.URL.Query().Get("user"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, userID).Start()
	}))

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, wait time.Duration) (Message, error) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var msg Message
	err := conn.ReadJSON(&msg)
	return msg, err
}

func TestHubBroadcastsAndTargets(t *testing.T) {
	hub, srv := startHub(t)
	bus := events.NewBus()
	detach := hub.Attach(bus)
	defer detach()

	alice, bob := uuid.New(), uuid.New()
	aliceConn := dial(t, srv, alice)
	bobConn := dial(t, srv, bob)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	bus.SpotChanged.Publish(events.SpotChanged{SpotID: 4, Change: events.SpotVerified})
	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		msg, err := readMessage(t, conn, time.Second)
		require.NoError(t, err)
		assert.Equal(t, MessageTypeSpotChanged, msg.Type)
	}

	bus.ProfileUpdated.Publish(events.ProfileUpdated{UserID: alice})
	msg, err := readMessage(t, aliceConn, time.Second)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeProfileUpdated, msg.Type)

	_, err = readMessage(t, bobConn, 100*time.Millisecond)
	assert.Error(t, err)
}

func TestScopedNotificationGoesToOneUser(t *testing.T) {
	hub, srv := startHub(t)
	bus := events.NewBus()
	hub.Attach(bus)

	alice := uuid.New()
	conn := dial(t, srv, alice)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	bus.NotificationPublished.Publish(events.NotificationPublished{NotificationID: 1, UserID: &alice})
	msg, err := readMessage(t, conn, time.Second)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeNotification, msg.Type)
}

func TestClientPing(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, uuid.New())
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	msg, err := readMessage(t, conn, time.Second)
	require.NoError(t, err)
	assert.Equal(t, MessageTypePong, msg.Type)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, uuid.New())
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}
