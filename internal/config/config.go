// Package config loads and validates cgateweb's settings. It is the one
// concrete shape behind the "opaque settings struct" the rest of the bridge
// is built against: every other package only ever sees a *Config, never an
// environment variable or a YAML file directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for cgateweb.
type Config struct {
	CGate     CGateConfig     `yaml:"cgate"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Queue     QueueConfig     `yaml:"queue"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CGateConfig describes the target C-Gate instance and connection pool.
type CGateConfig struct {
	Host        string `yaml:"host"`
	CommandPort int    `yaml:"command_port"`
	EventPort   int    `yaml:"event_port"`
	Project     string `yaml:"project"`

	PoolSize            int `yaml:"pool_size"`
	HealthCheckIntervalMS int `yaml:"health_check_interval_ms"`
	KeepAliveIntervalMS   int `yaml:"keep_alive_interval_ms"`
	ConnectionTimeoutMS   int `yaml:"connection_timeout_ms"`
	MaxRetries            int `yaml:"max_retries"`

	GetAllOnStart  bool   `yaml:"get_all_on_start"`
	GetAllPeriodS  int    `yaml:"get_all_period_seconds"`
	GetAllNetApp   string `yaml:"get_all_net_app"`
}

// MQTTConfig describes the broker connection and topic behaviour.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ClientID    string `yaml:"client_id"`
	QoS         int    `yaml:"qos"`
	RetainReads bool   `yaml:"retain_reads"`
}

// QueueConfig describes the throttled command queue.
type QueueConfig struct {
	MessageIntervalMS int `yaml:"message_interval_ms"`
	MaxPending        int `yaml:"max_pending"`
}

// DiscoveryConfig describes Home-Assistant-style discovery publishing.
type DiscoveryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Prefix       string  `yaml:"prefix"`
	Networks     []int   `yaml:"networks"`
	PeriodS      int     `yaml:"period_seconds"`
	CoverAppIDs  []int   `yaml:"cover_app_ids"`
	SwitchAppIDs []int   `yaml:"switch_app_ids"`
	RelayAppIDs  []int   `yaml:"relay_app_ids"`
	PIRAppIDs    []int   `yaml:"pir_app_ids"`
	LabelFile    string  `yaml:"label_file"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Order: defaults -> YAML file -> environment variables.
// Environment variables follow the pattern CGATEWEB_SECTION_KEY, e.g.
// CGATEWEB_MQTT_BROKER, CGATEWEB_CGATE_HOST.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with the defaults named in the external
// interfaces table: pool size 3, health check 30s, keep-alive 60s,
// connection timeout 5s, max retries 3, message interval 200ms.
func defaultConfig() *Config {
	return &Config{
		CGate: CGateConfig{
			Host:                  "localhost",
			CommandPort:           20023,
			EventPort:             20025,
			Project:               "CLIPSAL",
			PoolSize:              3,
			HealthCheckIntervalMS: 30_000,
			KeepAliveIntervalMS:   60_000,
			ConnectionTimeoutMS:   5_000,
			MaxRetries:            3,
		},
		MQTT: MQTTConfig{
			Broker:   "localhost:1883",
			ClientID: "cgateweb",
			QoS:      0,
		},
		Queue: QueueConfig{
			MessageIntervalMS: 200,
			MaxPending:        10_000,
		},
		Discovery: DiscoveryConfig{
			Prefix: "homeassistant",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies CGATEWEB_SECTION_KEY environment overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CGATEWEB_CGATE_HOST"); v != "" {
		cfg.CGate.Host = v
	}
	if v := os.Getenv("CGATEWEB_CGATE_PROJECT"); v != "" {
		cfg.CGate.Project = v
	}
	if v := os.Getenv("CGATEWEB_CGATE_COMMAND_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.CGate.CommandPort = n
		}
	}
	if v := os.Getenv("CGATEWEB_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("CGATEWEB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("CGATEWEB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
}

// Validate checks the configuration against the ranges and minimums named
// in the external interfaces table, accumulating every violation found.
func (c *Config) Validate() error {
	var errs []string

	if c.CGate.Host == "" {
		errs = append(errs, "cgate.host is required")
	}
	if c.CGate.Project == "" {
		errs = append(errs, "cgate.project is required")
	}
	if c.CGate.PoolSize < 1 {
		errs = append(errs, "cgate.pool_size must be >= 1")
	}
	if c.CGate.HealthCheckIntervalMS < 5_000 {
		errs = append(errs, "cgate.health_check_interval_ms must be >= 5000")
	}
	if c.CGate.KeepAliveIntervalMS < 10_000 {
		errs = append(errs, "cgate.keep_alive_interval_ms must be >= 10000")
	}
	if c.CGate.ConnectionTimeoutMS < 1_000 {
		errs = append(errs, "cgate.connection_timeout_ms must be >= 1000")
	}
	if c.CGate.MaxRetries < 1 {
		errs = append(errs, "cgate.max_retries must be >= 1")
	}
	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.Queue.MessageIntervalMS < 10 || c.Queue.MessageIntervalMS > 10_000 {
		errs = append(errs, "queue.message_interval_ms must be between 10 and 10000")
	}
	if c.Queue.MaxPending <= 0 {
		errs = append(errs, "queue.max_pending must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// MessageInterval returns the queue dispatch interval as a Duration.
func (c *Config) MessageInterval() time.Duration {
	return time.Duration(c.Queue.MessageIntervalMS) * time.Millisecond
}

// HealthCheckInterval returns the pool health check interval as a Duration.
func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.CGate.HealthCheckIntervalMS) * time.Millisecond
}

// KeepAliveInterval returns the pool keep-alive interval as a Duration.
func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.CGate.KeepAliveIntervalMS) * time.Millisecond
}

// ConnectionTimeout returns the connection timeout as a Duration.
func (c *Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.CGate.ConnectionTimeoutMS) * time.Millisecond
}
