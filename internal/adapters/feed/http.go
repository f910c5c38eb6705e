// Package feed implementa los adaptadores de ports.ResultFeed: sondeo HTTP,
// stream WebSocket y reproducción de lotes grabados.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

const (
	defaultResultsPath = "results"
	// La mesa publica un resultado cada ~30s; 1 req/s con ráfaga cubre
	// cualquier cadencia de sondeo razonable sin castigar al endpoint.
	requestsPerSec = 1
	requestsBurst  = 3

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// HTTPConfig describe el endpoint de resultados de la mesa.
type HTTPConfig struct {
	// URL del snapshot JSON de resultados.
	URL string
	// ResultsPath es la ruta gjson al array de resultados dentro de la
	// respuesta. Vacío usa "results".
	ResultsPath string
	// NewestFirst indica que el feed lista el resultado más reciente
	// primero; el adaptador lo invierte a orden cronológico.
	NewestFirst bool
	// Headers se añaden a cada petición (API keys, etc.).
	Headers map[string]string
}

// HTTPFeed sondea un endpoint JSON con rate limiting y retries.
type HTTPFeed struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     HTTPConfig
}

// NewHTTPFeed crea el feed HTTP. La URL es obligatoria.
func NewHTTPFeed(cfg HTTPConfig) (*HTTPFeed, error) {
	if cfg.URL == "" {
		return nil, errors.New("feed.NewHTTPFeed: url is required")
	}
	if cfg.ResultsPath == "" {
		cfg.ResultsPath = defaultResultsPath
	}
	return &HTTPFeed{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(requestsPerSec, requestsBurst),
		cfg:     cfg,
	}, nil
}

// FetchLatest descarga el snapshot y devuelve los resultados en orden
// cronológico, el más antiguo primero.
func (f *HTTPFeed) FetchLatest(ctx context.Context) ([]domain.Outcome, error) {
	body, err := f.getWithRetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed.FetchLatest: %w", err)
	}
	outcomes, err := parseSnapshot(body, f.cfg.ResultsPath, f.cfg.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("feed.FetchLatest: %w", err)
	}
	return outcomes, nil
}

// getWithRetry hace el GET con backoff exponencial. Reintenta errores de
// red, 429 y 5xx; los 4xx restantes fallan de inmediato.
func (f *HTTPFeed) getWithRetry(ctx context.Context) ([]byte, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := f.get(ctx)
		if err != nil {
			if attempt == maxRetries {
				return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			f.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("feed: rate limited by results endpoint", "attempt", attempt+1)
			f.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return nil, fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			f.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	}
	return nil, fmt.Errorf("exhausted %d retries", maxRetries)
}

func (f *HTTPFeed) get(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range f.cfg.Headers {
		req.Header.Set(k, v)
	}
	return f.http.Do(req)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (f *HTTPFeed) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// parseSnapshot extrae el array de resultados del cuerpo JSON y lo mapea a
// outcomes. Tokens desconocidos se ignoran con un aviso; un snapshot sin
// ningún resultado usable devuelve ports.ErrNoOutcomes.
func parseSnapshot(body []byte, path string, newestFirst bool) ([]domain.Outcome, error) {
	res := gjson.GetBytes(body, path)
	if !res.Exists() {
		return nil, fmt.Errorf("results path %q not found in response", path)
	}
	if !res.IsArray() {
		return nil, fmt.Errorf("results path %q is not an array", path)
	}

	var outcomes []domain.Outcome
	for _, item := range res.Array() {
		o, ok := mapToken(item.String())
		if !ok {
			slog.Debug("feed: skipping unknown result token", "token", item.String())
			continue
		}
		outcomes = append(outcomes, o)
	}
	if len(outcomes) == 0 {
		return nil, ports.ErrNoOutcomes
	}
	if newestFirst {
		reverse(outcomes)
	}
	return outcomes, nil
}

// mapToken normaliza un token del feed ("P", "player", "Banker", "tie"...)
// a su outcome.
func mapToken(token string) (domain.Outcome, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return 0, false
	}
	o, err := domain.ParseOutcome(token[:1])
	if err != nil {
		return 0, false
	}
	return o, true
}

func reverse(outcomes []domain.Outcome) {
	for i, j := 0, len(outcomes)-1; i < j; i, j = i+1, j-1 {
		outcomes[i], outcomes[j] = outcomes[j], outcomes[i]
	}
}
