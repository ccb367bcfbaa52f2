package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"IVSolver/internal/impliedvol"
	"IVSolver/internal/model"
	"IVSolver/internal/rootfind"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// LadderConfig lists the volatility bounds per pricing formula.
// Empty lists fall back to Default.
type LadderConfig struct {
	Default            []float64 `yaml:"default"`
	BlackScholesStock  []float64 `yaml:"black_scholes_stock"`
	BlackScholesFuture []float64 `yaml:"black_scholes_future"`
	BachelierStock     []float64 `yaml:"bachelier_stock"`
	BachelierFuture    []float64 `yaml:"bachelier_future"`
}

// Config holds all application configuration.
type Config struct {
	Solver struct {
		Tolerance     float64      `yaml:"tolerance"`
		MaxIterations int          `yaml:"max_iterations"`
		Ladders       LadderConfig `yaml:"ladders"`
	} `yaml:"solver"`
	Batch struct {
		Input         string `yaml:"input"`
		Output        string `yaml:"output"`
		Lines         int    `yaml:"lines"`
		Workers       int    `yaml:"workers"`
		ProgressEvery int    `yaml:"progress_every"`
	} `yaml:"batch"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Logging struct {
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// An absent lines key reads the whole file; an explicit 0 reads no rows.
	cfg.Batch.Lines = -1

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	// Defaults
	if cfg.Solver.Tolerance == 0 {
		cfg.Solver.Tolerance = rootfind.DefaultOptions().Tolerance
	}
	if cfg.Solver.MaxIterations == 0 {
		cfg.Solver.MaxIterations = rootfind.DefaultOptions().MaxIterations
	}
	if len(cfg.Solver.Ladders.Default) == 0 {
		cfg.Solver.Ladders.Default = append([]float64(nil), rootfind.DefaultLadder...)
	}
	if cfg.Batch.ProgressEvery == 0 {
		cfg.Batch.ProgressEvery = 1000
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/ivsolver.db"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 50
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"IV_INPUT":           &cfg.Batch.Input,
		"IV_OUTPUT":          &cfg.Batch.Output,
		"IV_CRON":            &cfg.Schedule.Cron,
		"IV_SERVER_ADDR":     &cfg.Server.Addr,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"SQLITE_PATH":        &cfg.Database.SQLitePath,
		"LOG_FILE":           &cfg.Logging.File,
		"HTTPS_PROXY":        &cfg.Proxy,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"IV_MAX_ITERATIONS": &cfg.Solver.MaxIterations,
		"IV_WORKERS":        &cfg.Batch.Workers,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("env %s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("IV_TOLERANCE"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("env IV_TOLERANCE: %w", err)
		}
		cfg.Solver.Tolerance = tol
	}
	return nil
}

// Validate checks that solver settings are usable and paired fields are consistent.
func (c *Config) Validate() error {
	if !(c.Solver.Tolerance > 0) {
		return fmt.Errorf("solver.tolerance must be positive")
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver.max_iterations must be positive")
	}
	ladders := map[string][]float64{
		"default":              c.Solver.Ladders.Default,
		"black_scholes_stock":  c.Solver.Ladders.BlackScholesStock,
		"black_scholes_future": c.Solver.Ladders.BlackScholesFuture,
		"bachelier_stock":      c.Solver.Ladders.BachelierStock,
		"bachelier_future":     c.Solver.Ladders.BachelierFuture,
	}
	for name, l := range ladders {
		if err := validateLadder(l); err != nil {
			return fmt.Errorf("solver.ladders.%s: %w", name, err)
		}
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func validateLadder(l []float64) error {
	if len(l) == 0 {
		return nil
	}
	if len(l) < 2 {
		return fmt.Errorf("needs at least 2 bounds, got %d", len(l))
	}
	if !(l[0] > 0) {
		return fmt.Errorf("first bound must be positive, got %g", l[0])
	}
	for i := 1; i < len(l); i++ {
		if !(l[i] > l[i-1]) {
			return fmt.Errorf("bounds must be strictly increasing at index %d", i)
		}
	}
	return nil
}

// SolverOptions returns the root finder settings.
func (c *Config) SolverOptions() rootfind.Options {
	return rootfind.Options{MaxIterations: c.Solver.MaxIterations, Tolerance: c.Solver.Tolerance}
}

// Ladders converts the ladder section into per-formula search bounds.
func (c *Config) Ladders() impliedvol.Ladders {
	l := c.Solver.Ladders
	overrides := make(map[impliedvol.Key][]float64)
	add := func(m model.ModelType, u model.UnderlyingType, bounds []float64) {
		if len(bounds) > 0 {
			overrides[impliedvol.Key{Model: m, Underlying: u}] = bounds
		}
	}
	add(model.ModelBlackScholes, model.UnderlyingStock, l.BlackScholesStock)
	add(model.ModelBlackScholes, model.UnderlyingFuture, l.BlackScholesFuture)
	add(model.ModelBachelier, model.UnderlyingStock, l.BachelierStock)
	add(model.ModelBachelier, model.UnderlyingFuture, l.BachelierFuture)
	return impliedvol.Ladders{Default: l.Default, Overrides: overrides}
}

// Engine builds the implied volatility engine described by the solver section.
func (c *Config) Engine() *impliedvol.Engine {
	return impliedvol.NewEngine(c.SolverOptions(), c.Ladders())
}
