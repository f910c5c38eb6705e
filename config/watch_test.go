package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/config"
)

// replaceFile reemplaza el archivo con un rename atómico, igual que hacen
// los editores al guardar.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func startWatch(t *testing.T, path string) (chan *config.Config, chan error, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan *config.Config, 8)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, func(c *config.Config) { got <- c })
	}()
	// Margen para que la watch del directorio quede registrada.
	time.Sleep(100 * time.Millisecond)
	return got, done, cancel
}

func TestWatch_DeliversValidEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	got, done, cancel := startWatch(t, path)
	defer cancel()

	replaceFile(t, path, "bot:\n  poll_interval_seconds: 7\n")

	select {
	case cfg := <-got:
		assert.Equal(t, 7*time.Second, cfg.PollInterval())
	case <-time.After(5 * time.Second):
		t.Fatal("onChange no llegó tras una edición válida")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch no paró tras cancelar el contexto")
	}
}

func TestWatch_IgnoresInvalidEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	got, _, cancel := startWatch(t, path)
	defer cancel()

	// Una edición rota no llega al callback; la siguiente válida sí.
	replaceFile(t, path, "strategy: [esto no parsea")
	replaceFile(t, path, "bot:\n  poll_interval_seconds: 9\n")

	select {
	case cfg := <-got:
		assert.Equal(t, 9*time.Second, cfg.PollInterval(), "la edición rota no debió entregarse")
	case <-time.After(5 * time.Second):
		t.Fatal("onChange no llegó tras la edición válida")
	}
}

func TestWatch_IgnoresRuleThatDoesNotBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	got, _, cancel := startWatch(t, path)
	defer cancel()

	// YAML válido pero el catálogo no construye: también se ignora.
	replaceFile(t, path, `
strategy:
  rules:
    - pattern: ["P", "Q"]
      response: "B"
`)
	replaceFile(t, path, "bot:\n  poll_interval_seconds: 11\n")

	select {
	case cfg := <-got:
		assert.Equal(t, 11*time.Second, cfg.PollInterval())
	case <-time.After(5 * time.Second):
		t.Fatal("onChange no llegó tras la edición válida")
	}
}

func TestWatch_MissingDirectoryFails(t *testing.T) {
	err := config.Watch(context.Background(),
		filepath.Join(t.TempDir(), "nope", "config.yaml"), func(*config.Config) {})
	assert.Error(t, err)
}
