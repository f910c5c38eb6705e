package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

const defaultMaxStages = 2

// Config ajusta la sesión.
type Config struct {
	MaxStages int // tope de gales por ciclo
	Stakes    domain.StakePlan
	TableURL  string // enlace "abrir mesa" en el aviso de entrada; vacío = sin botón
}

// Session es la máquina de estados de apuestas: consume resultados de uno en
// uno, casa patrones del catálogo y conduce entrada → gales → cierre →
// cooldown, junto con la contabilidad de avisos y el marcador.
//
// La muta un único escritor (el watcher, resultado a resultado); Snapshot es
// la única vista segura desde otras goroutines.
type Session struct {
	notifier ports.Notifier
	board    *domain.Scoreboard
	catalog  *domain.Catalog
	cfg      Config

	phase      Phase
	prepared   domain.Rule
	activeRule domain.Rule
	stageIndex int
	tail       []domain.Outcome
	advisories Advisories
	cycleID    string
	pending    *reload

	mu   sync.Mutex
	snap Snapshot
}

// Snapshot es la vista de solo lectura que publica la sesión.
type Snapshot struct {
	Phase      Phase
	Rule       string
	Target     string
	StageIndex int
	MaxStages  int
	CycleID    string
}

type reload struct {
	catalog *domain.Catalog
	stakes  domain.StakePlan
}

// New crea la sesión en reposo.
func New(notifier ports.Notifier, board *domain.Scoreboard, catalog *domain.Catalog, cfg Config) *Session {
	if cfg.MaxStages <= 0 {
		cfg.MaxStages = defaultMaxStages
	}
	s := &Session{notifier: notifier, board: board, catalog: catalog, cfg: cfg}
	s.publish()
	return s
}

// Observe procesa un resultado nuevo. Es el único punto de mutación de la
// sesión; el watcher lo llama en orden de llegada, de uno en uno.
func (s *Session) Observe(ctx context.Context, o domain.Outcome) {
	s.pushTail(o)

	switch s.phase {
	case PhaseCooldown:
		// El resultado que cerró un ciclo no puede abrir el siguiente:
		// se consume sin evaluar patrones.
		slog.Debug("session: cooldown outcome consumed", "outcome", o.String())
		s.phase = PhaseIdle
	case PhaseActive, PhaseEscalating:
		s.settleWager(ctx, o)
	case PhaseExhausted:
		s.settleExhausted(ctx, o)
	default: // Idle / Preparing
		if s.phase == PhaseIdle {
			s.applyPendingReload()
		}
		s.evaluateEntry(ctx, o)
	}

	s.publish()
}

// SwapCatalog deja preparado un cambio de catálogo y plan de importes.
// Se aplica solo con la sesión en reposo, nunca con una apuesta en curso;
// hasta entonces queda aparcado. Llamar desde la goroutine que llama Observe.
func (s *Session) SwapCatalog(catalog *domain.Catalog, stakes domain.StakePlan) {
	if catalog == nil {
		return
	}
	s.pending = &reload{catalog: catalog, stakes: stakes}
}

// Snapshot devuelve la última vista publicada.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// evaluateEntry aplica las reglas de entrada sobre la cola actual. La
// coincidencia completa gana siempre; si había preparación y no se confirmó,
// se retira el aviso y el mismo resultado se reevalúa como nuevo arranque.
func (s *Session) evaluateEntry(ctx context.Context, o domain.Outcome) {
	if rule, ok := s.catalog.Match(s.tail); ok {
		s.enter(ctx, rule)
		return
	}

	if s.phase == PhasePreparing {
		slog.Info("session: setup broken", "rule", s.prepared.Name, "outcome", o.String())
		s.advisories.RetractPrepare(ctx, s.notifier)
		s.prepared = domain.Rule{}
		s.phase = PhaseIdle
	}

	if rule, ok := s.catalog.NearMatch(s.tail); ok {
		s.prepare(ctx, rule)
	}
}

func (s *Session) prepare(ctx context.Context, rule domain.Rule) {
	s.phase = PhasePreparing
	s.prepared = rule
	slog.Info("session: possible entry", "rule", rule.Name,
		"target", rule.Response.String(), "tail", domain.FormatOutcomes(s.tail))
	s.advisories.TrackPrepare(s.send(ctx, prepareText(rule)))
}

func (s *Session) enter(ctx context.Context, rule domain.Rule) {
	s.advisories.RetractPrepare(ctx, s.notifier)
	s.prepared = domain.Rule{}
	s.phase = PhaseActive
	s.activeRule = rule
	s.stageIndex = 0
	s.cycleID = uuid.New().String()
	slog.Info("session: entry confirmed", "cycle", s.cycleID, "rule", rule.Name,
		"target", rule.Response.String(), "tail", domain.FormatOutcomes(s.tail))
	// El aviso de entrada es la señal en sí: no se retira nunca.
	s.send(ctx, entryText(rule, s.cfg.Stakes, s.cfg.MaxStages), s.entryButtons()...)
}

// settleWager evalúa el resultado con una apuesta en curso: cierre en verde,
// o un gale más hasta el tope.
func (s *Session) settleWager(ctx context.Context, o domain.Outcome) {
	if o == s.activeRule.Response || o == domain.Tie {
		s.resolve(ctx, o, true)
		return
	}

	s.stageIndex++
	slog.Info("session: gale", "cycle", s.cycleID,
		"stage", s.stageIndex, "max", s.cfg.MaxStages)
	s.advisories.TrackStage(s.send(ctx, galeText(s.stageIndex, s.cfg.MaxStages, s.cfg.Stakes)))

	if s.stageIndex < s.cfg.MaxStages {
		s.phase = PhaseEscalating
		return
	}
	// Último gale anunciado; el siguiente resultado cierra el ciclo.
	s.phase = PhaseExhausted
	slog.Info("session: gale limit reached", "cycle", s.cycleID, "stage", s.stageIndex)
}

// settleExhausted cierra el ciclo tras el tope de gales: el empate sigue
// protegiendo (verde); cualquier otro resultado cierra en rojo.
func (s *Session) settleExhausted(ctx context.Context, o domain.Outcome) {
	s.resolve(ctx, o, o == domain.Tie)
}

func (s *Session) resolve(ctx context.Context, o domain.Outcome, won bool) {
	var score domain.Score
	var sticker ports.StickerKind
	var text string
	if won {
		score = s.board.RecordWin()
		sticker = ports.StickerWin
		text = winText(o, score)
	} else {
		score = s.board.RecordLoss()
		sticker = ports.StickerLoss
		text = lossText(score)
	}
	slog.Info("session: cycle resolved", "cycle", s.cycleID, "won", won,
		"outcome", o.String(), "stage", s.stageIndex,
		"wins", score.Wins, "losses", score.Losses, "assertivity", score.AssertivityRate)

	if _, err := s.notifier.SendSticker(ctx, sticker); err != nil {
		slog.Warn("session: sticker delivery failed", "kind", sticker.String(), "err", err)
	}
	s.send(ctx, text)
	s.advisories.Clear(ctx, s.notifier)

	s.phase = PhaseCooldown
	s.activeRule = domain.Rule{}
	s.stageIndex = 0
	s.cycleID = ""
}

// send entrega un aviso y devuelve su handle. Un fallo de entrega se
// registra y devuelve handle cero: la transición continúa como si el aviso
// hubiera llegado, y la retirada ignora handles cero.
func (s *Session) send(ctx context.Context, text string, buttons ...ports.LinkButton) ports.MessageHandle {
	h, err := s.notifier.SendText(ctx, text, buttons...)
	if err != nil {
		slog.Warn("session: advisory delivery failed", "err", err)
		return ports.MessageHandle{}
	}
	return h
}

func (s *Session) entryButtons() []ports.LinkButton {
	if s.cfg.TableURL == "" {
		return nil
	}
	return []ports.LinkButton{{Label: "🎰 Open table", URL: s.cfg.TableURL}}
}

func (s *Session) pushTail(o domain.Outcome) {
	s.tail = append(s.tail, o)
	if limit := s.catalog.MaxPatternLen(); len(s.tail) > limit {
		s.tail = s.tail[len(s.tail)-limit:]
	}
}

func (s *Session) applyPendingReload() {
	if s.pending == nil {
		return
	}
	s.catalog = s.pending.catalog
	s.cfg.Stakes = s.pending.stakes
	s.pending = nil
	slog.Info("session: strategy reloaded", "rules", len(s.catalog.Rules()))
}

func (s *Session) publish() {
	snap := Snapshot{
		Phase:      s.phase,
		StageIndex: s.stageIndex,
		MaxStages:  s.cfg.MaxStages,
		CycleID:    s.cycleID,
	}
	switch s.phase {
	case PhasePreparing:
		snap.Rule = s.prepared.Name
		snap.Target = s.prepared.Response.String()
	case PhaseActive, PhaseEscalating, PhaseExhausted:
		snap.Rule = s.activeRule.Name
		snap.Target = s.activeRule.Response.String()
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
