package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

const (
	baseReconnectWait = time.Second
	maxReconnectWait  = 30 * time.Second
)

// StreamConfig describe el stream WebSocket de la mesa.
type StreamConfig struct {
	// URL del stream. Se aceptan esquemas http(s) y se normalizan a ws(s).
	URL string
	// ResultsPath es la ruta gjson al array de resultados dentro de cada
	// mensaje. Vacío usa "results".
	ResultsPath string
	// NewestFirst indica que cada mensaje lista el más reciente primero.
	NewestFirst bool
}

// StreamFeed mantiene el último snapshot recibido por WebSocket. Run lee
// mensajes y actualiza el snapshot; FetchLatest lo sirve sin bloquear, de
// modo que el bucle de sondeo funciona igual con stream que con HTTP.
type StreamFeed struct {
	cfg StreamConfig

	mu     sync.RWMutex
	latest []domain.Outcome
}

// NewStreamFeed crea el feed de stream. La URL es obligatoria.
func NewStreamFeed(cfg StreamConfig) (*StreamFeed, error) {
	if cfg.URL == "" {
		return nil, errors.New("feed.NewStreamFeed: url is required")
	}
	if cfg.ResultsPath == "" {
		cfg.ResultsPath = defaultResultsPath
	}
	if _, err := normalizeWSURL(cfg.URL); err != nil {
		return nil, fmt.Errorf("feed.NewStreamFeed: %w", err)
	}
	return &StreamFeed{cfg: cfg}, nil
}

// FetchLatest devuelve el último snapshot recibido, en orden cronológico.
// Sin snapshot todavía devuelve ports.ErrNoOutcomes.
func (s *StreamFeed) FetchLatest(_ context.Context) ([]domain.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, ports.ErrNoOutcomes
	}
	out := make([]domain.Outcome, len(s.latest))
	copy(out, s.latest)
	return out, nil
}

// Run mantiene la conexión hasta que ctx se cancele, reconectando con
// backoff con tope. Un mensaje recibido resetea el backoff.
func (s *StreamFeed) Run(ctx context.Context) error {
	wsURL, err := normalizeWSURL(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("feed.Run: %w", err)
	}

	wait := baseReconnectWait
	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Warn("feed: stream connect failed, retrying",
				"url", wsURL, "wait", wait.String(), "err", err)
			if !sleepCtx(ctx, wait) {
				return nil
			}
			wait = min(wait*2, maxReconnectWait)
			continue
		}

		slog.Info("feed: stream connected", "url", wsURL)
		if s.readLoop(ctx, conn) {
			wait = baseReconnectWait
		}
		conn.Close()

		if ctx.Err() != nil {
			return nil
		}
		slog.Warn("feed: stream disconnected, reconnecting", "wait", wait.String())
		if !sleepCtx(ctx, wait) {
			return nil
		}
		wait = min(wait*2, maxReconnectWait)
	}
}

// readLoop consume mensajes hasta que la conexión muera o ctx se cancele.
// Devuelve true si llegó a aplicar algún snapshot por esta conexión.
func (s *StreamFeed) readLoop(ctx context.Context, conn *websocket.Conn) bool {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	received := false
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("feed: stream read failed", "err", err)
			}
			return received
		}

		outcomes, err := parseSnapshot(msg, s.cfg.ResultsPath, s.cfg.NewestFirst)
		if err != nil {
			if !errors.Is(err, ports.ErrNoOutcomes) {
				slog.Debug("feed: ignoring unparseable stream message", "err", err)
			}
			continue
		}

		s.mu.Lock()
		s.latest = outcomes
		s.mu.Unlock()

		if !received {
			received = true
			slog.Debug("feed: first snapshot received", "count", len(outcomes))
		}
	}
}

func normalizeWSURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid stream url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid stream url scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
