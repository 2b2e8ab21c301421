// Package config содержит логику чтения конфигурации симулятора кассы.
package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmeshcher/checkout-sim/internal/checkout"
	"github.com/mmeshcher/checkout-sim/internal/customer"
	"github.com/mmeshcher/checkout-sim/internal/game"
	"github.com/mmeshcher/checkout-sim/internal/pricing"
)

const defaultRunAddress = "localhost:8080"

// Config содержит параметры конфигурации симулятора кассы.
type Config struct {
	RunAddress  string `env:"RUN_ADDRESS"`
	DatabaseURI string `env:"DATABASE_URI"`
	CatalogPath string `env:"CATALOG_PATH"`
	AuthSecret  string `env:"AUTH_SECRET"`

	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"100ms"`
	IdleGameTTL  time.Duration `env:"IDLE_GAME_TTL" envDefault:"30m"`

	MaxMistakes         int     `env:"MAX_MISTAKES" envDefault:"3"`
	BrandLowMultiplier  float64 `env:"BRAND_LOW_MULTIPLIER" envDefault:"1.0"`
	BrandHighMultiplier float64 `env:"BRAND_HIGH_MULTIPLIER" envDefault:"1.5"`

	SuspicionPenalty        time.Duration `env:"SUSPICION_PENALTY" envDefault:"20s"`
	NormalTimeLimitMin      time.Duration `env:"NORMAL_TIME_LIMIT_MIN" envDefault:"40s"`
	NormalTimeLimitMax      time.Duration `env:"NORMAL_TIME_LIMIT_MAX" envDefault:"50s"`
	DrunkTimeLimitMin       time.Duration `env:"DRUNK_TIME_LIMIT_MIN" envDefault:"50s"`
	DrunkTimeLimitMax       time.Duration `env:"DRUNK_TIME_LIMIT_MAX" envDefault:"70s"`
	NormalFraudToleranceMin float64       `env:"NORMAL_FRAUD_TOLERANCE_MIN" envDefault:"0.8"`
	NormalFraudToleranceMax float64       `env:"NORMAL_FRAUD_TOLERANCE_MAX" envDefault:"1.0"`
	DrunkFraudToleranceMin  float64       `env:"DRUNK_FRAUD_TOLERANCE_MIN" envDefault:"2.5"`
	DrunkFraudToleranceMax  float64       `env:"DRUNK_FRAUD_TOLERANCE_MAX" envDefault:"3.0"`

	DrunkSpawnChance  float64       `env:"DRUNK_SPAWN_CHANCE" envDefault:"0.2"`
	CardPaymentChance float64       `env:"CARD_PAYMENT_CHANCE" envDefault:"0.5"`
	SpawnInterval     time.Duration `env:"SPAWN_INTERVAL" envDefault:"15s"`
	FirstSpawnDelay   time.Duration `env:"FIRST_SPAWN_DELAY" envDefault:"2s"`
	ShoppingTime      time.Duration `env:"SHOPPING_TIME" envDefault:"7s"`

	PhoneCheckMin    time.Duration `env:"PHONE_CHECK_MIN" envDefault:"1s"`
	PhoneCheckMax    time.Duration `env:"PHONE_CHECK_MAX" envDefault:"3s"`
	PhoneChance      float64       `env:"PHONE_CHANCE" envDefault:"0.7"`
	PhoneDurationMin time.Duration `env:"PHONE_DURATION_MIN" envDefault:"3s"`
	PhoneDurationMax time.Duration `env:"PHONE_DURATION_MAX" envDefault:"6s"`

	BrandSwapHoverDelay time.Duration `env:"BRAND_SWAP_HOVER_DELAY" envDefault:"20ms"`
	CCTVWatchDuration   time.Duration `env:"CCTV_WATCH_DURATION" envDefault:"3s"`
	CCTVIdleDuration    time.Duration `env:"CCTV_IDLE_DURATION" envDefault:"5s"`

	FakeChangePolicy            string `env:"FAKE_CHANGE_POLICY" envDefault:"unless_witnessed"`
	MistakeOnWitnessedBrandSwap bool   `env:"MISTAKE_ON_WITNESSED_BRAND_SWAP" envDefault:"false"`
	SuspectFlatBarcode          bool   `env:"SUSPECT_FLAT_BARCODE" envDefault:"true"`
	DebugCustomers              bool   `env:"DEBUG_CUSTOMERS" envDefault:"false"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envCatalogPath := cfg.CatalogPath

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for the audit journal")
	flag.StringVar(&cfg.CatalogPath, "c", "", "path to the product catalog YAML file")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envCatalogPath != "" {
		cfg.CatalogPath = envCatalogPath
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность параметров.
func (c *Config) Validate() error {
	var errs []error

	if c.MaxMistakes <= 0 {
		errs = append(errs, errors.New("MAX_MISTAKES must be positive"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("TICK_INTERVAL must be positive"))
	}
	if c.BrandLowMultiplier <= 0 || c.BrandHighMultiplier <= 0 {
		errs = append(errs, errors.New("brand multipliers must be positive"))
	}
	if c.SuspicionPenalty < 0 {
		errs = append(errs, errors.New("SUSPICION_PENALTY must not be negative"))
	}

	durations := []struct {
		name     string
		min, max time.Duration
	}{
		{"NORMAL_TIME_LIMIT", c.NormalTimeLimitMin, c.NormalTimeLimitMax},
		{"DRUNK_TIME_LIMIT", c.DrunkTimeLimitMin, c.DrunkTimeLimitMax},
		{"PHONE_CHECK", c.PhoneCheckMin, c.PhoneCheckMax},
		{"PHONE_DURATION", c.PhoneDurationMin, c.PhoneDurationMax},
	}
	for _, d := range durations {
		if d.min <= 0 || d.max < d.min {
			errs = append(errs, fmt.Errorf("%s range is invalid: min %s, max %s", d.name, d.min, d.max))
		}
	}

	tolerances := []struct {
		name     string
		min, max float64
	}{
		{"NORMAL_FRAUD_TOLERANCE", c.NormalFraudToleranceMin, c.NormalFraudToleranceMax},
		{"DRUNK_FRAUD_TOLERANCE", c.DrunkFraudToleranceMin, c.DrunkFraudToleranceMax},
	}
	for _, tr := range tolerances {
		if tr.min < 0 || tr.max < tr.min {
			errs = append(errs, fmt.Errorf("%s range is invalid: min %g, max %g", tr.name, tr.min, tr.max))
		}
	}

	chances := map[string]float64{
		"DRUNK_SPAWN_CHANCE":  c.DrunkSpawnChance,
		"CARD_PAYMENT_CHANCE": c.CardPaymentChance,
		"PHONE_CHANCE":        c.PhoneChance,
	}
	for name, p := range chances {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %g", name, p))
		}
	}

	if _, err := checkout.ParseFakeChangePolicy(c.FakeChangePolicy); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Multipliers возвращает ценовые множители марок.
func (c *Config) Multipliers() pricing.Multipliers {
	return pricing.Multipliers{Low: c.BrandLowMultiplier, High: c.BrandHighMultiplier}
}

// GameSettings собирает параметры игры из конфигурации.
func (c *Config) GameSettings() game.Settings {
	policy, _ := checkout.ParseFakeChangePolicy(c.FakeChangePolicy)

	return game.Settings{
		MaxMistakes: c.MaxMistakes,
		Customer: customer.Settings{
			Normal: customer.Profile{
				TimeLimitMin: c.NormalTimeLimitMin,
				TimeLimitMax: c.NormalTimeLimitMax,
				ToleranceMin: c.NormalFraudToleranceMin,
				ToleranceMax: c.NormalFraudToleranceMax,
			},
			Drunk: customer.Profile{
				TimeLimitMin: c.DrunkTimeLimitMin,
				TimeLimitMax: c.DrunkTimeLimitMax,
				ToleranceMin: c.DrunkFraudToleranceMin,
				ToleranceMax: c.DrunkFraudToleranceMax,
			},
			SuspicionPenalty: c.SuspicionPenalty,
			ShoppingTime:     c.ShoppingTime,
			PhoneCheckMin:    c.PhoneCheckMin,
			PhoneCheckMax:    c.PhoneCheckMax,
			PhoneChance:      c.PhoneChance,
			PhoneDurationMin: c.PhoneDurationMin,
			PhoneDurationMax: c.PhoneDurationMax,
			Debug:            c.DebugCustomers,
		},
		DrunkSpawnChance:            c.DrunkSpawnChance,
		CardPaymentChance:           c.CardPaymentChance,
		FirstSpawnDelay:             c.FirstSpawnDelay,
		SpawnInterval:               c.SpawnInterval,
		HoverDelay:                  c.BrandSwapHoverDelay,
		CCTVIdle:                    c.CCTVIdleDuration,
		CCTVWatch:                   c.CCTVWatchDuration,
		FakeChangePolicy:            policy,
		MistakeOnWitnessedBrandSwap: c.MistakeOnWitnessedBrandSwap,
		SuspectFlatBarcode:          c.SuspectFlatBarcode,
	}
}
