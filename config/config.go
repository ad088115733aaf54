// Package config loads stablehop settings from a YAML file and STABLEHOP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

const envPrefix = "STABLEHOP"

type Config struct {
	LogLevel    string               `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Development bool                 `mapstructure:"development"`
	Destination types.Destination    `mapstructure:"destination"`
	Providers   ProvidersConfig      `mapstructure:"providers"`
	Aggregator  AggregatorConfig     `mapstructure:"aggregator"`
	AutoPay     AutoPayConfig        `mapstructure:"autopay"`
	Keystore    KeystoreConfig       `mapstructure:"keystore"`
	Networks    []types.ClientConfig `mapstructure:"networks"`
	Metrics     MetricsConfig        `mapstructure:"metrics"`
}

type ProviderConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey     string        `mapstructure:"api_key"`
	Integrator string        `mapstructure:"integrator"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type ProvidersConfig struct {
	LiFi        ProviderConfig `mapstructure:"lifi"`
	Relay       ProviderConfig `mapstructure:"relay"`
	DeBridge    ProviderConfig `mapstructure:"debridge"`
	NearIntents ProviderConfig `mapstructure:"near_intents"`
}

type AggregatorConfig struct {
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	TieThreshold string        `mapstructure:"tie_threshold" validate:"omitempty,numeric"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=0"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
}

type AutoPayConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	PreferredNetwork string `mapstructure:"preferred_network"`

	// MaxAmountPerRequest is in token base units; empty means no ceiling.
	MaxAmountPerRequest string        `mapstructure:"max_amount_per_request" validate:"omitempty,uint256"`
	FacilitatorURL      string        `mapstructure:"facilitator_url" validate:"omitempty,url"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

type KeystoreConfig struct {
	Dir        string `mapstructure:"dir"`
	Address    string `mapstructure:"address" validate:"omitempty,eth_addr"`
	Passphrase string `mapstructure:"passphrase"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)
	v.SetDefault("destination.chain_id", 9745)
	v.SetDefault("destination.token", "0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb")

	for _, name := range []string{"lifi", "relay", "debridge", "near_intents"} {
		prefix := "providers." + name + "."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"base_url", "")
		v.SetDefault(prefix+"api_key", "")
		v.SetDefault(prefix+"integrator", "stablehop")
		v.SetDefault(prefix+"timeout", 10*time.Second)
	}

	v.SetDefault("aggregator.timeout", 5*time.Second)
	v.SetDefault("aggregator.tie_threshold", "0.001")
	v.SetDefault("aggregator.max_attempts", 60)
	v.SetDefault("aggregator.poll_interval", 5*time.Second)

	v.SetDefault("autopay.enabled", false)
	v.SetDefault("autopay.preferred_network", string(types.NetworkPlasma))
	v.SetDefault("autopay.max_amount_per_request", "")
	v.SetDefault("autopay.facilitator_url", "")
	v.SetDefault("autopay.timeout", 30*time.Second)

	v.SetDefault("keystore.dir", "")
	v.SetDefault("keystore.address", "")
	v.SetDefault("keystore.passphrase", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
}

// Load reads path, or .stablehop.yaml from $HOME or the working directory
// when path is empty, then applies environment overrides such as
// STABLEHOP_AUTOPAY_ENABLED.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(".stablehop")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return types.NewError(types.ErrCodeInvalidParams, "invalid config: %v", err)
	}
	if c.AutoPay.Enabled && c.AutoPay.FacilitatorURL == "" {
		return types.NewError(types.ErrCodeInvalidParams, "invalid config: autopay enabled without facilitator_url")
	}
	if _, ok := types.Network(c.AutoPay.PreferredNetwork).ChainID(); !ok {
		return types.NewError(types.ErrCodeInvalidParams, "invalid config: unknown preferred network %q", c.AutoPay.PreferredNetwork)
	}
	return nil
}

// MaxAmount returns the auto-pay ceiling, or nil when unset.
func (c AutoPayConfig) MaxAmount() *big.Int {
	if c.MaxAmountPerRequest == "" {
		return nil
	}
	n, err := utils.ParseUint256(c.MaxAmountPerRequest)
	if err != nil {
		return nil
	}
	return n
}

// Threshold returns the tie threshold as a decimal.
func (c AggregatorConfig) Threshold() (decimal.Decimal, error) {
	if c.TieThreshold == "" {
		return decimal.New(1, -3), nil
	}
	return decimal.NewFromString(c.TieThreshold)
}
