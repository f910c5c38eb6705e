package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/session"
)

const defaultPollInterval = 5 * time.Second

// Config controla el ritmo de sondeo.
type Config struct {
	PollInterval time.Duration
}

// Reload es un cambio de estrategia detectado en caliente, pendiente de
// entregar a la sesión.
type Reload struct {
	Catalog *domain.Catalog
	Stakes  domain.StakePlan
}

// Watcher es el bucle conductor: pide lotes al feed, los deduplica contra
// la historia y entrega cada resultado nuevo a la sesión, en orden y de uno
// en uno. El fetch bloqueante corre en una goroutine worker aparte con un
// único fetch en vuelo; el consumer secuencial es el único que toca la
// sesión y la historia. Los errores del feed nunca paran el bucle: se
// reintenta al siguiente tick.
type Watcher struct {
	feed    ports.ResultFeed
	sess    *session.Session
	history *domain.History
	clock   quartz.Clock
	reloads <-chan Reload
	cfg     Config
}

// New crea el watcher. clock nil usa el reloj real; reloads puede ser nil
// si no hay hot-reload de estrategia.
func New(feed ports.ResultFeed, sess *session.Session, history *domain.History, clock quartz.Clock, reloads <-chan Reload, cfg Config) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Watcher{
		feed:    feed,
		sess:    sess,
		history: history,
		clock:   clock,
		reloads: reloads,
		cfg:     cfg,
	}
}

type fetchResult struct {
	outcomes []domain.Outcome
	err      error
}

// Run ejecuta el bucle hasta que ctx se cancele. La parada es cooperativa:
// surte efecto entre resultados, nunca a mitad de una transición.
func (w *Watcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	requests := make(chan struct{})
	results := make(chan fetchResult)

	g.Go(func() error { return w.fetchWorker(ctx, requests, results) })
	g.Go(func() error { return w.consume(ctx, requests, results) })

	return g.Wait()
}

// RunOnce ejecuta un único ciclo de forma síncrona: fetch directo,
// deduplicación y entrega de los resultados nuevos. Es el camino de --once;
// Run aplica la misma lógica con el fetch aislado en su worker.
func (w *Watcher) RunOnce(ctx context.Context) error {
	w.drainReloads()
	outcomes, err := w.feed.FetchLatest(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNoOutcomes) {
			slog.Debug("watcher: feed returned no usable outcomes")
			return nil
		}
		return fmt.Errorf("watcher.RunOnce: fetch: %w", err)
	}
	w.apply(ctx, outcomes)
	return nil
}

// fetchWorker atiende las peticiones de fetch de una en una y devuelve cada
// resultado por el canal. Un único fetch en vuelo garantiza que los lotes
// llegan al consumer en orden de llegada.
func (w *Watcher) fetchWorker(ctx context.Context, requests <-chan struct{}, results chan<- fetchResult) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-requests:
		}
		outcomes, err := w.feed.FetchLatest(ctx)
		select {
		case <-ctx.Done():
			return nil
		case results <- fetchResult{outcomes: outcomes, err: err}:
		}
	}
}

func (w *Watcher) consume(ctx context.Context, requests chan<- struct{}, results <-chan fetchResult) error {
	ticker := w.clock.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	slog.Info("watcher: started", "poll_interval", w.cfg.PollInterval.String())
	w.cycle(ctx, requests, results)

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher: stopped")
			return nil
		case <-ticker.C:
			w.cycle(ctx, requests, results)
		}
	}
}

func (w *Watcher) cycle(ctx context.Context, requests chan<- struct{}, results <-chan fetchResult) {
	w.drainReloads()

	select {
	case <-ctx.Done():
		return
	case requests <- struct{}{}:
	}

	var res fetchResult
	select {
	case <-ctx.Done():
		return
	case res = <-results:
	}

	if res.err != nil {
		if errors.Is(res.err, ports.ErrNoOutcomes) {
			slog.Debug("watcher: feed returned no usable outcomes")
		} else {
			slog.Warn("watcher: feed unavailable, retrying next tick", "err", res.err)
		}
		return
	}
	w.apply(ctx, res.outcomes)
}

// apply deduplica el lote y entrega cada resultado nuevo a la sesión.
func (w *Watcher) apply(ctx context.Context, outcomes []domain.Outcome) {
	fresh := w.history.Sync(outcomes)
	if len(fresh) == 0 {
		return
	}
	slog.Debug("watcher: new outcomes",
		"count", len(fresh), "outcomes", domain.FormatOutcomes(fresh))
	for _, o := range fresh {
		if ctx.Err() != nil {
			return
		}
		w.sess.Observe(ctx, o)
	}
}

func (w *Watcher) drainReloads() {
	if w.reloads == nil {
		return
	}
	for {
		select {
		case r := <-w.reloads:
			w.sess.SwapCatalog(r.Catalog, r.Stakes)
		default:
			return
		}
	}
}
