package session

import (
	"context"
	"log/slog"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

// Advisories lleva la contabilidad de los avisos retirables de un ciclo:
// como mucho un aviso de preparación y la lista ordenada de avisos de gale.
// La retirada es best-effort: el handle se descarta siempre, se haya podido
// borrar el mensaje o no, así que un handle nunca se retira dos veces y
// ninguno sobrevive al ciclo que lo emitió. Los handles cero (envíos
// fallidos) se ignoran al retirar.
type Advisories struct {
	prepare ports.MessageHandle
	stages  []ports.MessageHandle
}

// TrackPrepare registra el aviso de preparación pendiente. Un handle cero
// (envío fallido) no se registra: no hay mensaje que retirar.
func (a *Advisories) TrackPrepare(h ports.MessageHandle) {
	if h.Zero() {
		return
	}
	a.prepare = h
}

// PendingPrepare indica si hay un aviso de preparación entregado sin retirar.
func (a *Advisories) PendingPrepare() bool {
	return !a.prepare.Zero()
}

// TrackStage añade el aviso de una etapa de gale.
func (a *Advisories) TrackStage(h ports.MessageHandle) {
	if h.Zero() {
		return
	}
	a.stages = append(a.stages, h)
}

// StageCount devuelve cuántos avisos de gale siguen registrados.
func (a *Advisories) StageCount() int {
	return len(a.stages)
}

// RetractPrepare retira el aviso de preparación, si existe.
func (a *Advisories) RetractPrepare(ctx context.Context, n ports.Notifier) {
	h := a.prepare
	a.prepare = ports.MessageHandle{}
	retract(ctx, n, h)
}

// RetractStages retira todos los avisos de gale registrados, en orden.
func (a *Advisories) RetractStages(ctx context.Context, n ports.Notifier) {
	stages := a.stages
	a.stages = nil
	for _, h := range stages {
		retract(ctx, n, h)
	}
}

// Clear retira todo lo pendiente; se invoca en cada cierre de ciclo.
func (a *Advisories) Clear(ctx context.Context, n ports.Notifier) {
	a.RetractPrepare(ctx, n)
	a.RetractStages(ctx, n)
}

func retract(ctx context.Context, n ports.Notifier, h ports.MessageHandle) {
	if h.Zero() {
		return
	}
	if err := n.Delete(ctx, h); err != nil {
		// El mensaje queda visible.
		slog.Warn("session: advisory retract failed", "message_id", h.ID, "err", err)
	}
}
