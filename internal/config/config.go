package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	PageSize    int
	BearerToken string
}

type ConsoleConfig struct {
	Email    string
	Password string
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SecurityConfig struct {
	JWTAccessSecret string
	JWTAccessTTL    time.Duration
	RefreshTTL      time.Duration
	MaxSessions     int
}

type AppConfig struct {
	Environment      string
	API              APIConfig
	Console          ConsoleConfig
	HTTP             HTTPConfig
	Security         SecurityConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("ROSTER")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.baseurl", "http://localhost:8080/api/v1")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("api.pagesize", 10)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("security.jwtaccessttl", "15m")
	v.SetDefault("security.refreshttl", "720h") // 30 days
	v.SetDefault("security.maxsessions", 10)
}
