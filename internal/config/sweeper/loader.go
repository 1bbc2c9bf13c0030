package sweeper_config

import (
	"fmt"

	"github.com/NordCoder/FlightAlert/internal/config/common"
)

func Load(path string) (*Config, error) {
	v, err := common.NewViper(path, "sweeper")
	if err != nil {
		return nil, err
	}

	v.SetDefault("email.provider", "sendgrid")
	v.SetDefault("email.from", "alerts@flightalert.dev")
	v.SetDefault("email.subject", "Flight Price Alert")
	v.SetDefault("email.sendgrid.api_key", "")
	v.SetDefault("email.sendgrid.base_url", "https://api.sendgrid.com")
	v.SetDefault("email.smtp.addr", "localhost:1025")
	v.SetDefault("email.smtp.user", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.use_tls", false)
	v.SetDefault("email.smtp.timeout", "10s")
	_ = v.BindEnv("email.sendgrid.api_key", "EMAIL_SENDGRID_API_KEY", "SENDGRID_API_KEY")
	_ = v.BindEnv("email.from", "EMAIL_FROM", "FROM_EMAIL")

	v.SetDefault("sweep.tick", "1m")
	v.SetDefault("sweep.batch_limit", 500)
	v.SetDefault("sweep.max_retries", 3)
	v.SetDefault("sweep.retry_delay", "60s")
	v.SetDefault("sweep.single_instance", true)
	v.SetDefault("sweep.lock_key", 7_246_001)
	v.SetDefault("sweep.top_n", 5)
	v.SetDefault("sweep.metrics_addr", ":8082")

	v.SetDefault("events.enable", false)
	v.SetDefault("events.brokers", []string{"localhost:9094"})
	v.SetDefault("events.topic", "flightalert.alerts")
	v.SetDefault("events.partitions", 3)
	v.SetDefault("events.replication", 1)
	v.SetDefault("events.workers", 1)
	v.SetDefault("events.batch_size", 100)
	v.SetDefault("events.wait_time", "1s")
	v.SetDefault("events.in_progress_ttl", "30s")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if err := common.ValidateDB(cfg.DB); err != nil {
		return err
	}
	switch cfg.Email.Provider {
	case "sendgrid", "smtp":
	default:
		return common.ErrConfig("email.provider must be sendgrid or smtp")
	}
	if cfg.Sweep.Tick <= 0 {
		return common.ErrConfig("sweep.tick must be positive")
	}
	if cfg.Sweep.MaxRetries < 0 {
		return common.ErrConfig("sweep.max_retries must not be negative")
	}
	if cfg.Sweep.TopN <= 0 {
		return common.ErrConfig("sweep.top_n must be positive")
	}
	if cfg.Events.Enable && (len(cfg.Events.Brokers) == 0 || cfg.Events.Topic == "") {
		return common.ErrConfig("events.brokers and events.topic are required when events are enabled")
	}
	return nil
}
