// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/internal/config"
)

var (
	configPath string

	// Serial connection flags
	portName string
	baudRate int
	stopBits string
	parity   string
	dataBits int
	timeout  time.Duration
	nodeFlag int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Output flags
	logLevel    string
	recordPath  string
	metricsAddr string
)

var (
	settings = config.Default()
	logger   = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "midasctl",
	Short: "Midas ink delivery controller client",
	Long: `midasctl - query and configure Midas ink delivery controllers.

Talks the controller's ASCII command protocol over a serial line, or over a
WebSocket serial bridge. Up to fifteen controllers can share one line; select
one with --node (1-15, 0 for a single unaddressed controller).

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

Settings can also come from a YAML file given with --config; flags given on
the command line take precedence over the file.

For WebSocket authentication, the password is read from the MIDAS_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	flags := rootCmd.PersistentFlags()
	defaults := config.Default()

	flags.StringVar(&configPath, "config", "", "YAML configuration file")

	// Serial connection flags
	flags.StringVarP(&portName, "port", "p", "", "Serial port device")
	flags.IntVarP(&baudRate, "baud", "b", defaults.Serial.BaudRate, "Baud rate (serial only)")
	flags.StringVar(&stopBits, "stop-bits", defaults.Serial.StopBits, "Stop bits: 1, 1.5 or 2")
	flags.StringVar(&parity, "parity", defaults.Serial.Parity, "Parity: none, odd, even, mark or space")
	flags.IntVar(&dataBits, "data-bits", defaults.Serial.DataBits, "Data bits (5-8)")
	flags.DurationVar(&timeout, "timeout", defaults.Serial.Timeout, "Reply timeout per command")
	flags.IntVarP(&nodeFlag, "node", "n", defaults.Serial.Node, "Controller node address (0 = unaddressed, 1-15)")

	// WebSocket connection flags
	flags.StringVarP(&wsURL, "url", "u", "", "WebSocket bridge URL (ws:// or wss://)")
	flags.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Output flags
	flags.StringVar(&logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn or error")
	flags.StringVar(&recordPath, "record", "", "Record every exchange to a CBOR capture file")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

// loadSettings merges the config file with the flags that were set
// explicitly and configures the logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Serial.BaudRate = baudRate
	}
	if flags.Changed("stop-bits") {
		cfg.Serial.StopBits = stopBits
	}
	if flags.Changed("parity") {
		cfg.Serial.Parity = parity
	}
	if flags.Changed("data-bits") {
		cfg.Serial.DataBits = dataBits
	}
	if flags.Changed("timeout") {
		cfg.Serial.Timeout = timeout
	}
	if flags.Changed("node") {
		cfg.Serial.Node = nodeFlag
	}
	if flags.Changed("url") {
		cfg.WebSocket.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.WebSocket.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.WebSocket.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	settings = cfg
	logger = setupLogger(cfg.Log)
	return nil
}

func setupLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	}

	if cfg.Output == "file" && cfg.FilePath != "" {
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Warnf("failed to open log file: %v, using stderr", err)
		}
	}

	return log
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
