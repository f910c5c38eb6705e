package session

// Phase es la fase de la sesión de apuestas. Toda transición pasa por
// Observe; no hay combinaciones de flags sueltos que mantener coherentes.
type Phase int

const (
	PhaseIdle       Phase = iota // sin regla activa, entrada permitida
	PhasePreparing               // aviso de posible entrada emitido, falta confirmar
	PhaseActive                  // regla confirmada, apuesta en curso (etapa 0)
	PhaseEscalating              // al menos un gale tomado, quedan etapas
	PhaseExhausted               // tope de gales alcanzado, esperando el cierre
	PhaseCooldown                // un resultado de silencio tras cada cierre
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreparing:
		return "preparing"
	case PhaseActive:
		return "active"
	case PhaseEscalating:
		return "escalating"
	case PhaseExhausted:
		return "exhausted"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}
