package ws

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
)

// subscribe stands up a server that registers every upgraded connection on
// the given channel and returns a connected client.
func subscribe(t *testing.T, hub *Hub, channel string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.AddConnection(channel, conn)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestBroadcastPreservesEventOrder(t *testing.T) {
	hub := NewHub()
	client := subscribe(t, hub, GameChannel(1))

	hub.Broadcast(GameChannel(1), Event{Type: EventGameStarted})
	hub.Broadcast(GameChannel(1), Event{Type: EventFighterUsed})
	hub.Broadcast(GameChannel(1), Event{Type: EventPlayerEliminated})

	assert.Equal(t, EventGameStarted, readEvent(t, client).Type)
	assert.Equal(t, EventFighterUsed, readEvent(t, client).Type)
	assert.Equal(t, EventPlayerEliminated, readEvent(t, client).Type)
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	first := subscribe(t, hub, QuizChannel(7))
	second := subscribe(t, hub, QuizChannel(7))

	hub.Broadcast(QuizChannel(7), Event{
		Type: EventNextHint,
		Data: map[string]int{"hint_index": 2},
	})

	for _, client := range []*websocket.Conn{first, second} {
		event := readEvent(t, client)
		assert.Equal(t, EventNextHint, event.Type)
	}
}

func TestBroadcastIsScopedToChannel(t *testing.T) {
	hub := NewHub()
	game := subscribe(t, hub, GameChannel(1))
	quiz := subscribe(t, hub, QuizChannel(1))

	hub.Broadcast(GameChannel(1), Event{Type: EventPlayerJoined})

	assert.Equal(t, EventPlayerJoined, readEvent(t, game).Type)

	require.NoError(t, quiz.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := quiz.ReadMessage()
	assert.Error(t, err)
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "game_session_42", GameChannel(42))
	assert.Equal(t, "quiz_session_42", QuizChannel(42))
}
