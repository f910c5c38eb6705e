package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch vigila el archivo de configuración y llama onChange con cada
// versión válida. Ediciones que no parsean o no construyen un catálogo se
// registran y se ignoran; la configuración en curso sigue mandando. Bloquea
// hasta que ctx se cancele.
//
// Se vigila el directorio y se filtra por nombre: los editores reemplazan
// el archivo al guardar y una watch directa sobre el archivo muere con él.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config.Watch: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config.Watch: watch %q: %w", dir, err)
	}
	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := reload(path)
			if err != nil {
				slog.Warn("config: ignoring invalid edit", "err", err)
				continue
			}
			slog.Info("config: reloaded", "rules", len(cfg.Strategy.Rules))
			onChange(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config: watch error", "err", err)
		}
	}
}

// reload carga y valida una edición: además de parsear, el catálogo y el
// plan de importes tienen que construirse.
func reload(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := cfg.Catalog(); err != nil {
		return nil, err
	}
	if _, err := cfg.StakePlan(); err != nil {
		return nil, err
	}
	return cfg, nil
}
