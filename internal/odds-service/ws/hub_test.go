package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/esports-bet-ledger/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) ServerMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMsg
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// subscribe espera o pong para garantir que a assinatura já foi registrada
func subscribe(t *testing.T, conn *websocket.Conn, matchID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", MatchID: matchID}))
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	assert.Equal(t, "pong", read(t, conn).Type)
}

func TestHub_BroadcastReachesSubscribers(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	subscribe(t, a, "m1")
	subscribe(t, b, "m2")
	assert.Equal(t, 1, hub.Subscribers("m1"))

	hub.Broadcast(events.MatchUpdate{
		MatchID: "m1", Kind: "odds",
		Odds: &events.Odds{TeamA: decimal.RequireFromString("2.10"), TeamB: decimal.RequireFromString("1.75")},
	})

	msg := read(t, a)
	assert.Equal(t, "update", msg.Type)
	require.NotNil(t, msg.Update)
	assert.Equal(t, "m1", msg.Update.MatchID)
	assert.True(t, msg.Update.Odds.TeamA.Equal(decimal.RequireFromString("2.10")))

	// b só acompanha m2: o próximo quadro dele é o pong
	require.NoError(t, b.WriteJSON(ClientMsg{Type: "ping"}))
	assert.Equal(t, "pong", read(t, b).Type)
}

func TestHub_UnsubscribeAndDisconnect(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true }, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	subscribe(t, conn, "m1")

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe"}))
	assert.Equal(t, "error", read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "unsubscribe", MatchID: "m1"}))
	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	assert.Equal(t, "pong", read(t, conn).Type)
	assert.Equal(t, 0, hub.Subscribers("m1"))

	subscribe(t, conn, "m2")
	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers("m2") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatch(t *testing.T) {
	var order []string
	invalidate := func(_ context.Context, u events.MatchUpdate) { order = append(order, "invalidate:"+u.MatchID) }
	relay := func(_ context.Context, u events.MatchUpdate) { order = append(order, "relay:"+u.Kind) }

	Dispatch(context.Background(), `{"match_id":"m1","kind":"match","status":"live"}`, zap.NewNop(), invalidate, relay)
	assert.Equal(t, []string{"invalidate:m1", "relay:match"}, order)

	order = nil
	Dispatch(context.Background(), `not json`, zap.NewNop(), invalidate, relay)
	Dispatch(context.Background(), `{"kind":"match"}`, zap.NewNop(), invalidate, relay)
	assert.Empty(t, order)
}
