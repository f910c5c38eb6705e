package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rfalvarezm/BacBo-Telegram-Signals/internal/domain"
)

// Config es la configuración completa del bot.
type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Feed     FeedConfig     `yaml:"feed"`
	Telegram TelegramConfig `yaml:"telegram"`
	Strategy StrategyConfig `yaml:"strategy"`
	Report   ReportConfig   `yaml:"report"`
	Status   StatusConfig   `yaml:"status"`
	Log      LogConfig      `yaml:"log"`
}

// BotConfig controla el bucle de sondeo y el enlace a la mesa.
type BotConfig struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	TableURL            string `yaml:"table_url"`
}

// FeedConfig describe de dónde salen los resultados.
type FeedConfig struct {
	Mode string `yaml:"mode"` // http | stream
	URL  string `yaml:"url"`
	// ResultsPath es la ruta gjson al array de resultados en la respuesta.
	ResultsPath string `yaml:"results_path"`
	// NewestFirst: el feed lista el resultado más reciente primero.
	NewestFirst bool              `yaml:"newest_first"`
	Headers     map[string]string `yaml:"headers"`
}

// TelegramConfig contiene credenciales y destino de los avisos.
type TelegramConfig struct {
	Token         string `yaml:"token"`
	ChatID        int64  `yaml:"chat_id"`
	Endpoint      string `yaml:"endpoint"` // vacío usa el oficial
	WinStickerID  string `yaml:"win_sticker_id"`
	LossStickerID string `yaml:"loss_sticker_id"`
}

// StrategyConfig define el catálogo de patrones y el plan de gales.
type StrategyConfig struct {
	MaxGales        int          `yaml:"max_gales"`
	BaseStake       string       `yaml:"base_stake"`       // vacío desactiva importes
	StakeMultiplier string       `yaml:"stake_multiplier"` // factor por gale
	Rules           []RuleConfig `yaml:"rules"`
}

// RuleConfig es un patrón en orden cronológico (el más antiguo primero).
type RuleConfig struct {
	Name     string   `yaml:"name"`
	Pattern  []string `yaml:"pattern"`
	Response string   `yaml:"response"`
}

// ReportConfig controla el resumen diario.
type ReportConfig struct {
	DigestSchedule string `yaml:"digest_schedule"` // cron con segundos
}

// StatusConfig controla el servidor HTTP de estado.
type StatusConfig struct {
	Addr string `yaml:"addr"` // vacío lo desactiva
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval devuelve la cadencia de sondeo como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Bot.PollIntervalSeconds) * time.Second
}

// Catalog construye el catálogo de patrones en el orden configurado.
func (c *Config) Catalog() (*domain.Catalog, error) {
	rules := make([]domain.Rule, 0, len(c.Strategy.Rules))
	for i, rc := range c.Strategy.Rules {
		pattern, err := domain.ParseOutcomes(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("config.Catalog: rule %d: %w", i, err)
		}
		response, err := domain.ParseOutcome(rc.Response)
		if err != nil {
			return nil, fmt.Errorf("config.Catalog: rule %d: response: %w", i, err)
		}
		rule, err := domain.NewRule(rc.Name, pattern, response)
		if err != nil {
			return nil, fmt.Errorf("config.Catalog: rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}

	catalog, err := domain.NewCatalog(rules...)
	if err != nil {
		return nil, fmt.Errorf("config.Catalog: %w", err)
	}
	return catalog, nil
}

// StakePlan construye el plan de importes por gale.
func (c *Config) StakePlan() (domain.StakePlan, error) {
	plan, err := domain.NewStakePlan(c.Strategy.BaseStake, c.Strategy.StakeMultiplier)
	if err != nil {
		return domain.StakePlan{}, fmt.Errorf("config.StakePlan: %w", err)
	}
	return plan, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// El catálogo por defecto es el clásico de Bac Bo: tres iguales o dos
// iguales y uno distinto, apostando a la rotura/continuación de racha.
func setDefaults(cfg *Config) {
	if cfg.Bot.PollIntervalSeconds <= 0 {
		cfg.Bot.PollIntervalSeconds = 5
	}
	if cfg.Feed.Mode == "" {
		cfg.Feed.Mode = "http"
	}
	if cfg.Feed.ResultsPath == "" {
		cfg.Feed.ResultsPath = "results"
	}
	if cfg.Strategy.MaxGales <= 0 {
		cfg.Strategy.MaxGales = 2
	}
	if cfg.Strategy.StakeMultiplier == "" {
		cfg.Strategy.StakeMultiplier = "2"
	}
	if len(cfg.Strategy.Rules) == 0 {
		cfg.Strategy.Rules = defaultRules()
	}
	if cfg.Report.DigestSchedule == "" {
		cfg.Report.DigestSchedule = "0 59 23 * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func defaultRules() []RuleConfig {
	return []RuleConfig{
		{Pattern: []string{"P", "P", "P"}, Response: "B"},
		{Pattern: []string{"B", "B", "B"}, Response: "P"},
		{Pattern: []string{"P", "B", "B"}, Response: "P"},
		{Pattern: []string{"B", "P", "P"}, Response: "B"},
	}
}
