package outbox_relay_config

import (
	"time"

	"github.com/NordCoder/Vidtube/internal/obs"
	pginfra "github.com/NordCoder/Vidtube/internal/repository/postgres"
)

type KafkaCfg struct {
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

type RelayCfg struct {
	Tick          time.Duration `mapstructure:"tick"`
	BatchSize     int           `mapstructure:"batch_size"`
	Workers       int           `mapstructure:"workers"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
	MetricsAddr   string        `mapstructure:"metrics_addr"`
}

type Config struct {
	DB    pginfra.Config `mapstructure:"db"`
	Kafka KafkaCfg       `mapstructure:"kafka"`
	Relay RelayCfg       `mapstructure:"relay"`
	Log   obs.LogConfig  `mapstructure:"log"`
	OTEL  obs.OTELConfig `mapstructure:"otel"`
}
