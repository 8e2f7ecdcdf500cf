// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads midasctl settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Monitor   MonitorConfig   `yaml:"monitor"`
}

type SerialConfig struct {
	Port     string        `yaml:"port"`
	BaudRate int           `yaml:"baud_rate"`
	DataBits int           `yaml:"data_bits"`
	Parity   string        `yaml:"parity"`
	StopBits string        `yaml:"stop_bits"`
	Timeout  time.Duration `yaml:"timeout"`
	Node     int           `yaml:"node"`
}

// WebSocketConfig describes a network serial bridge. The password is never
// stored in the file.
type WebSocketConfig struct {
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type MonitorConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Parameters []string      `yaml:"parameters"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate: midas.DefaultBaudRate,
			DataBits: midas.DefaultDataBits,
			Parity:   midas.ParityNone.String(),
			StopBits: midas.StopBitsOne.String(),
			Timeout:  midas.DefaultTimeout,
		},
		WebSocket: WebSocketConfig{
			Username: "admin",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Output: "stderr",
		},
		Monitor: MonitorConfig{
			Interval: time.Second,
			Parameters: []string{
				"status_word",
				"alarms",
				"last_error_code",
				"tank_temperature",
				"heater_1_temperature",
				"return_pressure",
				"recirc_pump_command",
				"meniscus_pump_command",
			},
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that have a fixed vocabulary or range.
func (c *Config) Validate() error {
	if _, err := midas.ParseParity(c.Serial.Parity); err != nil {
		return err
	}
	if _, err := midas.ParseStopBits(c.Serial.StopBits); err != nil {
		return err
	}
	if _, err := c.NodeID(); err != nil {
		return err
	}
	// Applies to the WebSocket bridge too, which never reaches midas.Config.Validate
	if c.Serial.Timeout <= 0 {
		return fmt.Errorf("invalid reply timeout %v", c.Serial.Timeout)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("invalid monitor interval %v", c.Monitor.Interval)
	}
	for _, name := range c.Monitor.Parameters {
		if _, ok := midas.Lookup(name); !ok {
			return fmt.Errorf("monitor: %w: %q", midas.ErrUnknownParam, name)
		}
	}
	return nil
}

// NodeID returns the configured node address.
func (c *Config) NodeID() (midas.NodeID, error) {
	if c.Serial.Node < 0 || c.Serial.Node > int(midas.NodeMax) {
		return 0, fmt.Errorf("%w: %d (valid 0-%d)", midas.ErrInvalidNode, c.Serial.Node, midas.NodeMax)
	}
	return midas.NodeID(c.Serial.Node), nil
}

// SerialSettings converts the serial section for midas.NewDevice.
func (c *Config) SerialSettings() (midas.Config, error) {
	parity, err := midas.ParseParity(c.Serial.Parity)
	if err != nil {
		return midas.Config{}, err
	}
	stopBits, err := midas.ParseStopBits(c.Serial.StopBits)
	if err != nil {
		return midas.Config{}, err
	}

	return midas.Config{
		Port:     c.Serial.Port,
		BaudRate: c.Serial.BaudRate,
		StopBits: stopBits,
		Parity:   parity,
		DataBits: c.Serial.DataBits,
		Timeout:  c.Serial.Timeout,
	}, nil
}
