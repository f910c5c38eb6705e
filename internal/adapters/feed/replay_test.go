package feed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/adapters/feed"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/ports"
)

func writeReplayFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReplay_FetchLatest_ServesBatchesInOrder(t *testing.T) {
	r := feed.NewReplay(
		[]domain.Outcome{domain.PlayerWin, domain.PlayerWin},
		[]domain.Outcome{domain.PlayerWin, domain.PlayerWin, domain.BankerWin},
	)

	first, err := r.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := r.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 3)

	// Agotado el guion, el último lote se repite indefinidamente.
	third, err := r.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, third)
}

func TestReplay_FetchLatest_EmptyIsErrNoOutcomes(t *testing.T) {
	r := feed.NewReplay()
	_, err := r.FetchLatest(context.Background())
	assert.ErrorIs(t, err, ports.ErrNoOutcomes)
}

func TestLoadReplay_ParsesBatchFile(t *testing.T) {
	path := writeReplayFile(t, `{"batches": [["P","P"], ["P","P","B","T"]]}`)

	r, err := feed.LoadReplay(path)
	require.NoError(t, err)

	first, err := r.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Outcome{domain.PlayerWin, domain.PlayerWin}, first)

	second, err := r.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Tie, second[len(second)-1])
}

func TestLoadReplay_MissingFile(t *testing.T) {
	_, err := feed.LoadReplay(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadReplay_RejectsMalformedFiles(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"sin array batches", `{"results": ["P"]}`},
		{"lote que no es array", `{"batches": ["P"]}`},
		{"etiqueta desconocida", `{"batches": [["P","Z"]]}`},
		{"sin lotes", `{"batches": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeReplayFile(t, tc.content)
			_, err := feed.LoadReplay(path)
			assert.Error(t, err)
		})
	}
}
