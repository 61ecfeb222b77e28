package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	PayFast  PayFastConfig  `mapstructure:"payfast"`
	AI       AIConfig       `mapstructure:"ai"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	SiteURL string `mapstructure:"site_url"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// PayFastConfig holds merchant credentials and ITN validation settings.
type PayFastConfig struct {
	MerchantID  string `mapstructure:"merchant_id"`
	MerchantKey string `mapstructure:"merchant_key"`
	Passphrase  string `mapstructure:"passphrase"`
	// ProcessURL is where the buyer is redirected to pay.
	ProcessURL string `mapstructure:"process_url"`
	// ValidateURL is the server-to-server ITN confirmation endpoint.
	ValidateURL string `mapstructure:"validate_url"`
	// SourceRanges is the published PayFast egress CIDR allow-list.
	SourceRanges          []string `mapstructure:"source_ranges"`
	ConfirmTimeoutSeconds int      `mapstructure:"confirm_timeout_seconds"`
	// AmountToleranceCents absorbs fee-rounding drift on the gross amount
	// check. Zero means exact match.
	AmountToleranceCents int64  `mapstructure:"amount_tolerance_cents"`
	ReturnURL            string `mapstructure:"return_url"`
	CancelURL            string `mapstructure:"cancel_url"`
	NotifyURL            string `mapstructure:"notify_url"`
}

type AIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APIBaseURL string `mapstructure:"api_base_url"`
	Model      string `mapstructure:"model"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load(configPath string) (*Config, error) {
	// Prefer config.local.yaml when present (holds real secrets, not committed)
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Environment variables override file values
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.PayFast.ConfirmTimeoutSeconds <= 0 {
		cfg.PayFast.ConfirmTimeoutSeconds = 10
	}

	return &cfg, nil
}
