package domain

import (
	"fmt"
	"strings"
)

// Rule asocia un patrón corto de resultados con la apuesta recomendada.
// El patrón va del más viejo al más nuevo, igual que la historia.
type Rule struct {
	Name     string
	Pattern  []Outcome
	Response Outcome
}

// NewRule valida y construye una regla. El último símbolo del patrón y la
// respuesta nunca pueden ser Tie: el empate no se apuesta, protege.
func NewRule(name string, pattern []Outcome, response Outcome) (Rule, error) {
	if len(pattern) == 0 {
		return Rule{}, fmt.Errorf("domain.NewRule: %q: empty pattern", name)
	}
	if response == Tie {
		return Rule{}, fmt.Errorf("domain.NewRule: %q: Tie is not a valid response", name)
	}
	if pattern[len(pattern)-1] == Tie {
		return Rule{}, fmt.Errorf("domain.NewRule: %q: pattern cannot end in Tie", name)
	}
	if name == "" {
		name = defaultRuleName(pattern, response)
	}
	p := make([]Outcome, len(pattern))
	copy(p, pattern)
	return Rule{Name: name, Pattern: p, Response: response}, nil
}

// FinalSymbol devuelve el símbolo que confirma el patrón.
func (r Rule) FinalSymbol() Outcome {
	return r.Pattern[len(r.Pattern)-1]
}

func defaultRuleName(pattern []Outcome, response Outcome) string {
	var b strings.Builder
	for _, o := range pattern {
		b.WriteString(o.Label())
	}
	b.WriteString(">")
	b.WriteString(response.Label())
	return b.String()
}

// Catalog es el conjunto ordenado de reglas. Se evalúa en orden de registro
// y gana la primera coincidencia; el orden del YAML es significativo.
type Catalog struct {
	rules  []Rule
	maxLen int
}

// NewCatalog construye el catálogo. Exige al menos una regla.
func NewCatalog(rules ...Rule) (*Catalog, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("domain.NewCatalog: at least one rule required")
	}
	c := &Catalog{rules: make([]Rule, len(rules))}
	copy(c.rules, rules)
	for _, r := range c.rules {
		if len(r.Pattern) == 0 {
			return nil, fmt.Errorf("domain.NewCatalog: rule %q was not built with NewRule", r.Name)
		}
		if len(r.Pattern) > c.maxLen {
			c.maxLen = len(r.Pattern)
		}
	}
	return c, nil
}

// Rules devuelve una copia de las reglas en orden de registro.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// MaxPatternLen devuelve la longitud del patrón más largo. La ventana de
// historia y la cola de la sesión se dimensionan con este valor.
func (c *Catalog) MaxPatternLen() int {
	return c.maxLen
}

// Match devuelve la primera regla cuyo patrón completo coincide con el
// final de la cola, o false si ninguna coincide.
func (c *Catalog) Match(tail []Outcome) (Rule, bool) {
	for _, r := range c.rules {
		if suffixEquals(tail, r.Pattern) {
			return r, true
		}
	}
	return Rule{}, false
}

// NearMatch devuelve la primera regla a la que le falta exactamente el
// último símbolo: la cola termina con el patrón menos su cierre. Sirve para
// avisar de una posible entrada antes del resultado decisivo. Las reglas de
// un solo símbolo no tienen preparación posible.
func (c *Catalog) NearMatch(tail []Outcome) (Rule, bool) {
	for _, r := range c.rules {
		if len(r.Pattern) < 2 {
			continue
		}
		if suffixEquals(tail, r.Pattern[:len(r.Pattern)-1]) {
			return r, true
		}
	}
	return Rule{}, false
}

func suffixEquals(tail, pattern []Outcome) bool {
	if len(pattern) == 0 || len(tail) < len(pattern) {
		return false
	}
	return EqualOutcomes(tail[len(tail)-len(pattern):], pattern)
}
