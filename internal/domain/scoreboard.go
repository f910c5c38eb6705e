package domain

import (
	"math"
	"sync"
)

// Scoreboard acumula los contadores de la estrategia. La máquina de estados
// es el único escritor, pero el digest diario y el servidor de estado leen
// desde otras goroutines, de ahí el mutex propio.
//
// Los contadores viven solo en memoria: un reinicio arranca a cero.
type Scoreboard struct {
	mu              sync.Mutex
	wins            int
	losses          int
	consecutiveWins int
}

// Score es una foto inmutable de los contadores.
// Invariante: TotalAttempts == Wins + Losses.
type Score struct {
	Wins            int
	Losses          int
	ConsecutiveWins int
	TotalAttempts   int
	AssertivityRate float64
}

// RecordWin registra un ciclo ganado y devuelve la foto resultante.
func (s *Scoreboard) RecordWin() Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wins++
	s.consecutiveWins++
	return s.scoreLocked()
}

// RecordLoss registra un ciclo perdido; la racha vuelve a cero.
func (s *Scoreboard) RecordLoss() Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.losses++
	s.consecutiveWins = 0
	return s.scoreLocked()
}

// Snapshot devuelve la foto actual sin modificar nada.
func (s *Scoreboard) Snapshot() Score {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreLocked()
}

func (s *Scoreboard) scoreLocked() Score {
	total := s.wins + s.losses
	return Score{
		Wins:            s.wins,
		Losses:          s.losses,
		ConsecutiveWins: s.consecutiveWins,
		TotalAttempts:   total,
		AssertivityRate: assertivity(s.wins, total),
	}
}

// assertivity devuelve wins/total en porcentaje, redondeado a 2 decimales.
// Con cero intentos la tasa es 0.0, no NaN.
func assertivity(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	rate := float64(wins) / float64(total) * 100
	return math.Round(rate*100) / 100
}
