package sweeper_config

import (
	"time"

	"github.com/NordCoder/FlightAlert/internal/config/common"
	pg "github.com/NordCoder/FlightAlert/internal/repository/postgres"
)

type SendGrid struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type SMTP struct {
	Addr     string        `mapstructure:"addr"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Email struct {
	Provider string   `mapstructure:"provider"`
	From     string   `mapstructure:"from"`
	Subject  string   `mapstructure:"subject"`
	SendGrid SendGrid `mapstructure:"sendgrid"`
	SMTP     SMTP     `mapstructure:"smtp"`
}

type Sweep struct {
	Tick           time.Duration `mapstructure:"tick"`
	BatchLimit     int           `mapstructure:"batch_limit"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	SingleInstance bool          `mapstructure:"single_instance"`
	LockKey        int64         `mapstructure:"lock_key"`
	TopN           int           `mapstructure:"top_n"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
}

type Events struct {
	Enable        bool          `mapstructure:"enable"`
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	Partitions    int           `mapstructure:"partitions"`
	Replication   int           `mapstructure:"replication"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Config struct {
	App     common.App     `mapstructure:"app"`
	DB      pg.Config      `mapstructure:"db"`
	OTEL    common.OTEL    `mapstructure:"otel"`
	Log     common.Log     `mapstructure:"log"`
	Amadeus common.Amadeus `mapstructure:"amadeus"`
	Gateway common.Gateway `mapstructure:"gateway"`
	Email   Email          `mapstructure:"email"`
	Sweep   Sweep          `mapstructure:"sweep"`
	Events  Events         `mapstructure:"events"`
}
