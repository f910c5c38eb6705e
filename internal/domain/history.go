package domain

import "sync"

// History mantiene la ventana reciente de resultados y es la única puerta de
// deduplicación entre el feed y la máquina de estados.
//
// El feed entrega en cada poll una ventana pequeña con los últimos resultados
// de la mesa (cronológica, el más nuevo al final). Dos polls consecutivos se
// solapan casi por completo; Sync compara el lote nuevo contra el último
// visto y emite solo los resultados realmente nuevos, en orden de llegada.
//
// El watcher es el único que escribe (Sync); el servidor de estado lee Tail
// y Seen desde sus handlers, de ahí el mutex.
type History struct {
	mu        sync.Mutex
	window    []Outcome
	lastBatch []Outcome
	seen      int
	limit     int
}

// NewHistory crea la historia con una ventana acotada. El límite debe ser al
// menos la longitud del patrón más largo del catálogo; por debajo de eso los
// patrones largos nunca podrían consultarse.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = 1
	}
	return &History{limit: limit}
}

// Sync incorpora un lote del feed y devuelve los resultados nuevos en orden
// cronológico. Un lote idéntico al anterior no emite nada (la mesa no avanzó
// entre polls). Un lote sin solape con el anterior se emite completo: la
// ventana saltó más de lo que cubre el poll o empezó una sesión nueva.
func (h *History) Sync(batch []Outcome) []Outcome {
	if len(batch) == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if EqualOutcomes(batch, h.lastBatch) {
		return nil
	}

	fresh := diffBatches(h.lastBatch, batch)
	h.lastBatch = append([]Outcome(nil), batch...)
	for _, o := range fresh {
		h.push(o)
	}
	return fresh
}

// Tail devuelve una copia de los últimos n resultados (todos si hay menos).
func (h *History) Tail(n int) []Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.window) {
		n = len(h.window)
	}
	if n <= 0 {
		return nil
	}
	tail := make([]Outcome, n)
	copy(tail, h.window[len(h.window)-n:])
	return tail
}

// Seen devuelve el total de resultados observados desde el arranque.
func (h *History) Seen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seen
}

func (h *History) push(o Outcome) {
	h.seen++
	h.window = append(h.window, o)
	if len(h.window) > h.limit {
		h.window = h.window[len(h.window)-h.limit:]
	}
}

// diffBatches devuelve los resultados de cur que no estaban ya en prev,
// asumiendo que ambos son ventanas deslizantes de la misma secuencia: el
// mayor sufijo de prev que es prefijo de cur se considera ya visto.
func diffBatches(prev, cur []Outcome) []Outcome {
	overlap := len(prev)
	if len(cur) < overlap {
		overlap = len(cur)
	}
	for ; overlap > 0; overlap-- {
		if EqualOutcomes(prev[len(prev)-overlap:], cur[:overlap]) {
			return cur[overlap:]
		}
	}
	return cur
}

// EqualOutcomes compara dos lotes por igualdad estructural.
func EqualOutcomes(a, b []Outcome) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
