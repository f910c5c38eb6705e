package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// StakePlan deriva el importe recomendado por etapa de gale:
// base × multiplier^etapa. Es información para los avisos; el bot nunca
// mueve fondos. Con base cero los avisos omiten las líneas de importe.
type StakePlan struct {
	Base       decimal.Decimal
	Multiplier decimal.Decimal
}

// NewStakePlan parsea los importes exactos de la config ("10.00", "2").
// Cadenas vacías equivalen a plan deshabilitado con multiplicador 2.
func NewStakePlan(base, multiplier string) (StakePlan, error) {
	if base == "" {
		base = "0"
	}
	if multiplier == "" {
		multiplier = "2"
	}
	b, err := decimal.NewFromString(base)
	if err != nil {
		return StakePlan{}, fmt.Errorf("domain.NewStakePlan: base %q: %w", base, err)
	}
	if b.IsNegative() {
		return StakePlan{}, fmt.Errorf("domain.NewStakePlan: base %q cannot be negative", base)
	}
	m, err := decimal.NewFromString(multiplier)
	if err != nil {
		return StakePlan{}, fmt.Errorf("domain.NewStakePlan: multiplier %q: %w", multiplier, err)
	}
	if !m.IsPositive() {
		return StakePlan{}, fmt.Errorf("domain.NewStakePlan: multiplier %q must be positive", multiplier)
	}
	return StakePlan{Base: b, Multiplier: m}, nil
}

// Enabled indica si hay importes que mostrar.
func (p StakePlan) Enabled() bool {
	return p.Base.IsPositive()
}

// StakeFor devuelve el importe de una etapa (0 = entrada, 1 = primer gale).
func (p StakePlan) StakeFor(stage int) decimal.Decimal {
	if stage <= 0 {
		return p.Base
	}
	return p.Base.Mul(p.Multiplier.Pow(decimal.NewFromInt(int64(stage))))
}

// TotalRisk devuelve el acumulado arriesgado hasta la etapa, inclusive.
func (p StakePlan) TotalRisk(throughStage int) decimal.Decimal {
	total := decimal.Zero
	for i := 0; i <= throughStage; i++ {
		total = total.Add(p.StakeFor(i))
	}
	return total
}
