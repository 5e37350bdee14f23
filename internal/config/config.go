// Package config loads the stromingd configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration. Field tags are JSON because
// ghodss/yaml converts YAML to JSON before decoding.
type Config struct {
	HTTP      HTTP      `json:"http"`
	RESP      RESP      `json:"resp"`
	Log       Log       `json:"log"`
	Telemetry Telemetry `json:"telemetry"`
}

// HTTP configures the REST transport.
type HTTP struct {
	Addr string `json:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode"`
}

// RESP configures the Redis-protocol transport.
type RESP struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Log configures logging.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Telemetry toggles the OpenTelemetry decorator. Spans and metrics are
// written to stdout; metrics are exported every Interval.
type Telemetry struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
}

// ExportInterval parses Interval.
func (t Telemetry) ExportInterval() (time.Duration, error) {
	d, err := time.ParseDuration(t.Interval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval %s is not positive", t.Interval)
	}
	return d, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		HTTP:      HTTP{Addr: "127.0.0.1:3333", Mode: "release"},
		RESP:      RESP{Enabled: false, Addr: "127.0.0.1:6380"},
		Log:       Log{Level: "info", Format: "text"},
		Telemetry: Telemetry{Enabled: false, Interval: "30s"},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem in the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	switch c.HTTP.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("http.mode %q is not one of debug, release, test", c.HTTP.Mode))
	}
	if c.RESP.Enabled && c.RESP.Addr == "" {
		errs = append(errs, errors.New("resp.addr is required when resp is enabled"))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Telemetry.Enabled {
		if _, err := c.Telemetry.ExportInterval(); err != nil {
			errs = append(errs, fmt.Errorf("telemetry.interval: %w", err))
		}
	}
	return errors.Join(errs...)
}
