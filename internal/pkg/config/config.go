package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr       string
	DatabaseURL      string
	MigrationsFolder string
	TickInterval     time.Duration
	Retention        time.Duration
	LogLevel         string
	MqttCfg          *MqttConfig
	HTTPCfg          HTTPConfig
}

type MqttConfig struct {
	Host     string
	Username string
	Password string
}

// HTTPConfig carries server tuning that has no CLI flag; env-only with
// sensible defaults.
type HTTPConfig struct {
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
}

func HTTPFromEnv() (HTTPConfig, error) {
	return env.ParseAs[HTTPConfig]()
}
