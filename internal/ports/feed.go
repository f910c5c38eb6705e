package ports

import (
	"context"
	"errors"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
)

// ErrNoOutcomes indica que el feed respondió sin resultados utilizables
// (lote vacío o payload malformado). El watcher lo trata como "sin datos
// nuevos" y reintenta en el siguiente intervalo.
var ErrNoOutcomes = errors.New("feed: no outcomes available")

// ResultFeed entrega la ventana más reciente de resultados de la mesa.
type ResultFeed interface {
	// FetchLatest devuelve los últimos resultados en orden cronológico
	// (el más viejo primero). Puede bloquear por red; respeta ctx.
	FetchLatest(ctx context.Context) ([]domain.Outcome, error)
}
