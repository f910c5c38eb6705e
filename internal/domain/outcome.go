package domain

import (
	"fmt"
	"strings"
)

// Outcome es el resultado de una ronda de Bac Bo.
type Outcome int

const (
	PlayerWin Outcome = iota // 🔵 ganan los dados del Player
	BankerWin                // 🔴 ganan los dados del Banker
	Tie                      // 🟡 empate, protege cualquier apuesta activa
)

// ParseOutcome convierte la etiqueta corta que entrega el feed ("P", "B", "T").
func ParseOutcome(label string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "P":
		return PlayerWin, nil
	case "B":
		return BankerWin, nil
	case "T":
		return Tie, nil
	}
	return 0, fmt.Errorf("domain.ParseOutcome: unknown outcome label %q", label)
}

// ParseOutcomes convierte un lote completo de etiquetas en orden.
func ParseOutcomes(labels []string) ([]Outcome, error) {
	out := make([]Outcome, 0, len(labels))
	for _, l := range labels {
		o, err := ParseOutcome(l)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (o Outcome) String() string {
	switch o {
	case PlayerWin:
		return "Player"
	case BankerWin:
		return "Banker"
	case Tie:
		return "Tie"
	default:
		return "Unknown"
	}
}

// Label devuelve la etiqueta corta usada en config y logs.
func (o Outcome) Label() string {
	switch o {
	case PlayerWin:
		return "P"
	case BankerWin:
		return "B"
	case Tie:
		return "T"
	default:
		return "?"
	}
}

// Icon devuelve el emoji usado en los avisos de Telegram.
func (o Outcome) Icon() string {
	switch o {
	case PlayerWin:
		return "🔵"
	case BankerWin:
		return "🔴"
	case Tie:
		return "🟡"
	default:
		return "⚪"
	}
}

// FormatOutcomes devuelve las etiquetas del lote unidas por espacios,
// tal como se muestran en logs ("P P B T").
func FormatOutcomes(outcomes []Outcome) string {
	labels := make([]string, len(outcomes))
	for i, o := range outcomes {
		labels[i] = o.Label()
	}
	return strings.Join(labels, " ")
}
