package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/adapters/feed"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

var upgrader = websocket.Upgrader{}

// wsServer levanta un servidor WebSocket que entrega los mensajes dados y
// mantiene la conexión abierta hasta que el cliente corte.
func wsServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Bloquea hasta que el cliente cierre.
		conn.ReadMessage()
	}))
}

func TestNewStreamFeed_Validation(t *testing.T) {
	_, err := feed.NewStreamFeed(feed.StreamConfig{})
	assert.Error(t, err, "url obligatoria")

	_, err = feed.NewStreamFeed(feed.StreamConfig{URL: "ftp://stream"})
	assert.Error(t, err, "esquema no soportado")

	_, err = feed.NewStreamFeed(feed.StreamConfig{URL: "https://stream.example.com/ws"})
	assert.NoError(t, err, "http(s) se normaliza a ws(s)")
}

func TestStreamFeed_FetchLatest_BeforeFirstSnapshot(t *testing.T) {
	s, err := feed.NewStreamFeed(feed.StreamConfig{URL: "ws://stream.example.com"})
	require.NoError(t, err)

	_, err = s.FetchLatest(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoOutcomes)
}

func TestStreamFeed_Run_KeepsLatestSnapshot(t *testing.T) {
	srv := wsServer(t,
		`{"results":["P","P"]}`,
		`esto no es JSON`,
		`{"results":["P","P","B"]}`,
	)
	defer srv.Close()

	// La URL http del test se normaliza a ws.
	s, err := feed.NewStreamFeed(feed.StreamConfig{URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// El mensaje ilegible se ignora; queda el último snapshot válido.
	require.Eventually(t, func() bool {
		outcomes, err := s.FetchLatest(ctx)
		return err == nil && len(outcomes) == 3
	}, 5*time.Second, 20*time.Millisecond)

	outcomes, err := s.FetchLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Outcome{domain.PlayerWin, domain.PlayerWin, domain.BankerWin}, outcomes)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run no paró tras cancelar el contexto")
	}
}

func TestStreamFeed_Run_ReconnectsAfterDrop(t *testing.T) {
	var mu sync.Mutex
	conns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		mu.Lock()
		conns++
		n := conns
		mu.Unlock()
		if n == 1 {
			// La primera conexión entrega un snapshot y muere.
			conn.WriteMessage(websocket.TextMessage, []byte(`{"results":["P"]}`))
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"results":["P","B"]}`))
		conn.ReadMessage()
	}))
	defer srv.Close()

	s, err := feed.NewStreamFeed(feed.StreamConfig{URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Tras la caída reconecta solo y recibe el snapshot nuevo.
	require.Eventually(t, func() bool {
		outcomes, err := s.FetchLatest(ctx)
		return err == nil && len(outcomes) == 2
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run no paró tras cancelar el contexto")
	}
}
