package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"telegram-credential-broker/internal/domain/model"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StoreConfig struct {
	Dir         string        `yaml:"dir"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Username string  `yaml:"username"`
	AdminIDs []int64 `yaml:"admin_ids"`
	// RateLimit caps commands per user per window.
	RateLimit       int           `yaml:"rate_limit"`
	RateLimitWindow time.Duration `yaml:"rate_limit_window"`
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StateTTL time.Duration `yaml:"state_ttl"`
}

type MonitorConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// ExpiryWarning flags active subscriptions lapsing within this window.
	ExpiryWarning time.Duration `yaml:"expiry_warning"`
	// LowAvailabilityThreshold triggers the restock alert when the total
	// available credentials across all pools falls below it.
	LowAvailabilityThreshold int `yaml:"low_availability_threshold"`
}

type PaymentsConfig struct {
	// PendingTTL is how long a payment may stay pending before the reaper
	// rejects it.
	PendingTTL   time.Duration `yaml:"pending_ttl"`
	ReapInterval time.Duration `yaml:"reap_interval"`
}

type ReferralConfig struct {
	// ReferrerRewardPercent of the referred user's first payment is credited
	// to the referrer's ledger balance.
	ReferrerRewardPercent int64 `yaml:"referrer_reward_percent"`
	// ReferredDiscountPercent applies to a referred user's purchases after
	// their first one.
	ReferredDiscountPercent int64 `yaml:"referred_discount_percent"`
	// FreeMonthAfter is the number of successful referrals that earns the
	// referrer a free month.
	FreeMonthAfter int `yaml:"free_month_after"`
}

type PlanConfig struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	DurationDays  int    `yaml:"duration_days"`
	RegularPrice  int64  `yaml:"regular_price"`   // cents
	FirstBuyPrice int64  `yaml:"first_buy_price"` // cents, 0 disables
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Bot      BotConfig      `yaml:"bot"`
	Admin    AdminConfig    `yaml:"admin"`
	Redis    RedisConfig    `yaml:"redis"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Payments PaymentsConfig `yaml:"payments"`
	Referral ReferralConfig `yaml:"referral"`
	Plans    []PlanConfig   `yaml:"plans"`

	Runtime RuntimeConfig `yaml:"-"`
}

func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "data"
	}
	if cfg.Store.LockTimeout <= 0 {
		cfg.Store.LockTimeout = 3 * time.Second
	}
	if cfg.Bot.RateLimit <= 0 {
		cfg.Bot.RateLimit = 10
	}
	if cfg.Bot.RateLimitWindow <= 0 {
		cfg.Bot.RateLimitWindow = time.Minute
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.StateTTL <= 0 {
		cfg.Redis.StateTTL = time.Hour
	}
	if cfg.Monitor.SweepInterval <= 0 {
		cfg.Monitor.SweepInterval = time.Minute
	}
	if cfg.Monitor.ExpiryWarning <= 0 {
		cfg.Monitor.ExpiryWarning = 3 * 24 * time.Hour
	}
	if cfg.Payments.PendingTTL <= 0 {
		cfg.Payments.PendingTTL = 10 * time.Minute
	}
	if cfg.Payments.ReapInterval <= 0 {
		cfg.Payments.ReapInterval = time.Minute
	}
	if cfg.Referral.ReferrerRewardPercent <= 0 {
		cfg.Referral.ReferrerRewardPercent = 10
	}
	if cfg.Referral.ReferredDiscountPercent <= 0 {
		cfg.Referral.ReferredDiscountPercent = 5
	}
	if cfg.Referral.FreeMonthAfter <= 0 {
		cfg.Referral.FreeMonthAfter = 3
	}

	// minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("admin.jwt_secret is required")
	}
	if len(cfg.Plans) == 0 {
		return nil, errors.New("at least one plan is required")
	}
	for _, p := range cfg.Plans {
		if p.ID == "" || p.DurationDays <= 0 || p.RegularPrice <= 0 {
			return nil, fmt.Errorf("plan %q is invalid", p.ID)
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// Catalog builds the immutable plan catalog handed to the components that
// need it.
func (c *Config) Catalog() model.Catalog {
	catalog := make(model.Catalog, len(c.Plans))
	for _, p := range c.Plans {
		catalog[p.ID] = &model.Plan{
			ID:            p.ID,
			Name:          p.Name,
			DurationDays:  p.DurationDays,
			RegularPrice:  p.RegularPrice,
			FirstBuyPrice: p.FirstBuyPrice,
		}
	}
	return catalog
}
