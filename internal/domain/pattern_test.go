package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
)

func makeRule(t *testing.T, name, pattern string, response domain.Outcome) domain.Rule {
	t.Helper()
	rule, err := domain.NewRule(name, outcomes(pattern), response)
	require.NoError(t, err)
	return rule
}

func TestNewRule_DefaultName(t *testing.T) {
	rule := makeRule(t, "", "PPB", domain.BankerWin)
	assert.Equal(t, "PPB>B", rule.Name)

	named := makeRule(t, "triple player", "PPP", domain.BankerWin)
	assert.Equal(t, "triple player", named.Name)
}

func TestNewRule_CopiesPattern(t *testing.T) {
	pattern := outcomes("PPP")
	rule, err := domain.NewRule("", pattern, domain.BankerWin)
	require.NoError(t, err)

	pattern[0] = domain.BankerWin
	assert.Equal(t, outcomes("PPP"), rule.Pattern, "mutar el slice original no debe tocar la regla")
}

func TestNewRule_Validation(t *testing.T) {
	_, err := domain.NewRule("", nil, domain.BankerWin)
	assert.Error(t, err, "patrón vacío")

	_, err = domain.NewRule("", outcomes("PP"), domain.Tie)
	assert.Error(t, err, "el empate nunca es apuesta")

	_, err = domain.NewRule("", outcomes("PT"), domain.BankerWin)
	assert.Error(t, err, "el patrón no puede cerrar en empate")
}

func TestNewCatalog_RequiresRules(t *testing.T) {
	_, err := domain.NewCatalog()
	assert.Error(t, err)
}

func TestCatalog_MaxPatternLen(t *testing.T) {
	catalog, err := domain.NewCatalog(
		makeRule(t, "", "PP", domain.BankerWin),
		makeRule(t, "", "BBBB", domain.PlayerWin),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, catalog.MaxPatternLen())
}

func TestCatalog_Match_SuffixSemantics(t *testing.T) {
	catalog, err := domain.NewCatalog(makeRule(t, "", "PPP", domain.BankerWin))
	require.NoError(t, err)

	rule, ok := catalog.Match(outcomes("BPPP"))
	require.True(t, ok, "el patrón casa contra el final de la cola")
	assert.Equal(t, domain.BankerWin, rule.Response)

	_, ok = catalog.Match(outcomes("PP"))
	assert.False(t, ok, "cola más corta que el patrón")

	_, ok = catalog.Match(outcomes("PPPB"))
	assert.False(t, ok, "el patrón tiene que cerrar la cola, no aparecer en medio")
}

func TestCatalog_Match_FirstRuleWins(t *testing.T) {
	short := makeRule(t, "short", "PP", domain.BankerWin)
	long := makeRule(t, "long", "BPP", domain.PlayerWin)

	catalog, err := domain.NewCatalog(short, long)
	require.NoError(t, err)

	rule, ok := catalog.Match(outcomes("BPP"))
	require.True(t, ok)
	assert.Equal(t, "short", rule.Name, "gana la primera regla en orden de registro")

	reversed, err := domain.NewCatalog(long, short)
	require.NoError(t, err)

	rule, ok = reversed.Match(outcomes("BPP"))
	require.True(t, ok)
	assert.Equal(t, "long", rule.Name)
}

func TestCatalog_NearMatch(t *testing.T) {
	catalog, err := domain.NewCatalog(makeRule(t, "", "PPP", domain.BankerWin))
	require.NoError(t, err)

	rule, ok := catalog.NearMatch(outcomes("BPP"))
	require.True(t, ok, "falta exactamente el símbolo de cierre")
	assert.Equal(t, "PPP>B", rule.Name)

	_, ok = catalog.NearMatch(outcomes("PB"))
	assert.False(t, ok)

	_, ok = catalog.NearMatch(outcomes("P"))
	assert.False(t, ok, "un solo resultado no basta para preparar PPP")
}

func TestCatalog_NearMatch_SkipsSingleSymbolRules(t *testing.T) {
	catalog, err := domain.NewCatalog(makeRule(t, "", "P", domain.BankerWin))
	require.NoError(t, err)

	_, ok := catalog.NearMatch(outcomes("BB"))
	assert.False(t, ok, "una regla de un símbolo no tiene preparación posible")
}
