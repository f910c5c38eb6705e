package feed

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

// Replay sirve lotes grabados en orden, uno por llamada. Agotados los
// lotes repite el último indefinidamente, como una mesa que deja de
// publicar resultados nuevos: la deduplicación aguas arriba lo convierte
// en silencio.
type Replay struct {
	mu      sync.Mutex
	batches [][]domain.Outcome
	next    int
}

// NewReplay crea un feed de reproducción a partir de los lotes dados.
func NewReplay(batches ...[]domain.Outcome) *Replay {
	return &Replay{batches: batches}
}

// LoadReplay lee un archivo de reproducción: un JSON con un array
// "batches" de arrays de etiquetas P/B/T.
//
//	{"batches": [["P","P","B"], ["P","P","B","T"]]}
func LoadReplay(path string) (*Replay, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("feed.LoadReplay: %w", err)
	}
	res := gjson.GetBytes(body, "batches")
	if !res.IsArray() {
		return nil, fmt.Errorf("feed.LoadReplay: %s: missing batches array", path)
	}

	var batches [][]domain.Outcome
	for i, raw := range res.Array() {
		if !raw.IsArray() {
			return nil, fmt.Errorf("feed.LoadReplay: %s: batch %d is not an array", path, i)
		}
		var labels []string
		for _, item := range raw.Array() {
			labels = append(labels, item.String())
		}
		batch, err := domain.ParseOutcomes(labels)
		if err != nil {
			return nil, fmt.Errorf("feed.LoadReplay: %s: batch %d: %w", path, i, err)
		}
		batches = append(batches, batch)
	}
	if len(batches) == 0 {
		return nil, fmt.Errorf("feed.LoadReplay: %s: no batches", path)
	}
	return NewReplay(batches...), nil
}

// FetchLatest devuelve el siguiente lote grabado.
func (r *Replay) FetchLatest(_ context.Context) ([]domain.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.batches) == 0 {
		return nil, ports.ErrNoOutcomes
	}
	batch := r.batches[r.next]
	if r.next < len(r.batches)-1 {
		r.next++
	}
	out := make([]domain.Outcome, len(batch))
	copy(out, batch)
	return out, nil
}
