// Package report publica el resumen diario del marcador.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/session"
)

// Formato cron con segundos; por defecto cada día a las 23:59.
const defaultSchedule = "0 59 23 * * *"

const postTimeout = 30 * time.Second

// Digest publica el marcador acumulado en el chat según un schedule cron.
type Digest struct {
	cron     *cron.Cron
	notifier ports.Notifier
	board    *domain.Scoreboard
	schedule string
}

// NewDigest registra el job. Schedule vacío usa el diario de las 23:59.
func NewDigest(notifier ports.Notifier, board *domain.Scoreboard, schedule string) (*Digest, error) {
	if schedule == "" {
		schedule = defaultSchedule
	}
	d := &Digest{
		cron:     cron.New(cron.WithSeconds()),
		notifier: notifier,
		board:    board,
		schedule: schedule,
	}

	_, err := d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()
		if err := d.Post(ctx); err != nil {
			slog.Warn("report: digest delivery failed", "err", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("report.NewDigest: invalid schedule %q: %w", schedule, err)
	}
	return d, nil
}

// Start arranca el scheduler.
func (d *Digest) Start() {
	d.cron.Start()
	slog.Info("report: daily digest scheduled", "schedule", d.schedule)
}

// Stop para el scheduler y espera a que termine el job en curso.
func (d *Digest) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	slog.Info("report: daily digest stopped")
}

// Post publica el resumen acumulado. Sin intentos registrados es no-op.
func (d *Digest) Post(ctx context.Context) error {
	score := d.board.Snapshot()
	if score.TotalAttempts == 0 {
		slog.Debug("report: no attempts recorded, skipping digest")
		return nil
	}

	if _, err := d.notifier.SendText(ctx, session.ScoreboardSummary(score)); err != nil {
		return fmt.Errorf("report.Post: %w", err)
	}
	slog.Info("report: daily digest posted",
		"attempts", score.TotalAttempts, "assertivity", score.AssertivityRate)
	return nil
}
