package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
)

func TestParseOutcome_Labels(t *testing.T) {
	cases := []struct {
		label string
		want  domain.Outcome
	}{
		{"P", domain.PlayerWin},
		{"B", domain.BankerWin},
		{"T", domain.Tie},
		{"p", domain.PlayerWin},
		{" b ", domain.BankerWin},
		{"t\n", domain.Tie},
	}
	for _, tc := range cases {
		got, err := domain.ParseOutcome(tc.label)
		require.NoError(t, err, "etiqueta %q debe parsear", tc.label)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseOutcome_Unknown(t *testing.T) {
	_, err := domain.ParseOutcome("X")
	assert.Error(t, err)

	_, err = domain.ParseOutcome("")
	assert.Error(t, err)
}

func TestParseOutcomes_Batch(t *testing.T) {
	batch, err := domain.ParseOutcomes([]string{"P", "B", "T"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Outcome{domain.PlayerWin, domain.BankerWin, domain.Tie}, batch)

	_, err = domain.ParseOutcomes([]string{"P", "?"})
	assert.Error(t, err, "una etiqueta inválida invalida el lote entero")
}

func TestOutcome_Representations(t *testing.T) {
	assert.Equal(t, "Player", domain.PlayerWin.String())
	assert.Equal(t, "Banker", domain.BankerWin.String())
	assert.Equal(t, "Tie", domain.Tie.String())

	assert.Equal(t, "P", domain.PlayerWin.Label())
	assert.Equal(t, "B", domain.BankerWin.Label())
	assert.Equal(t, "T", domain.Tie.Label())

	assert.Equal(t, "🔵", domain.PlayerWin.Icon())
	assert.Equal(t, "🔴", domain.BankerWin.Icon())
	assert.Equal(t, "🟡", domain.Tie.Icon())
}

func TestFormatOutcomes(t *testing.T) {
	batch := []domain.Outcome{domain.PlayerWin, domain.PlayerWin, domain.BankerWin, domain.Tie}
	assert.Equal(t, "P P B T", domain.FormatOutcomes(batch))
	assert.Equal(t, "", domain.FormatOutcomes(nil))
}
