package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// BillingConfig holds the GST policy knobs applied to new allocations.
// Rates are whole percentages (18 means 18%).
type BillingConfig struct {
	GSTRates []float64 `mapstructure:"gstRates"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		GSTRates: []float64{0, 5, 12, 18, 28, 40},
	}
}

// AllowedGSTRates returns the whitelist as exact decimals.
func (c BillingConfig) AllowedGSTRates() []decimal.Decimal {
	rates := make([]decimal.Decimal, 0, len(c.GSTRates))
	for _, rate := range c.GSTRates {
		rates = append(rates, decimal.NewFromFloat(rate))
	}
	return rates
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/rabill/config") // Volume-mounted config
	v.AddConfigPath("/etc/rabill")            // System config
	v.AddConfigPath(".")                      // Current directory (dev mode)

	v.SetEnvPrefix("RABILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBillingConfig()
		v.SetDefault("billing.gstRates", defaults.GSTRates)
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.GSTRates) == 0 {
		cfg = DefaultBillingConfig()
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// NewStaticBillingConfigHolder pins a fixed config with no file watching.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if len(cfg.GSTRates) == 0 {
		return errors.New("billing.gstRates cannot be empty")
	}
	for _, rate := range cfg.GSTRates {
		if rate < 0 || rate > 100 {
			return errors.New("billing.gstRates must be between 0 and 100")
		}
	}
	return nil
}
