// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/midasctl/pkg/midas"
)

// settingsCommand returns a command carrying the flags loadSettings
// inspects, bound to the package flag variables.
func settingsCommand(t *testing.T, cfgFile string) *cobra.Command {
	t.Helper()

	oldSettings, oldLogger, oldPath := settings, logger, configPath
	t.Cleanup(func() {
		settings, logger, configPath = oldSettings, oldLogger, oldPath
	})
	configPath = cfgFile

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&portName, "port", "", "")
	cmd.Flags().IntVar(&baudRate, "baud", 0, "")
	cmd.Flags().IntVar(&nodeFlag, "node", 0, "")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "")
	return cmd
}

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "midasctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadSettings_FlagsOverrideFile(t *testing.T) {
	path := writeSettingsFile(t, `
serial:
  port: /dev/ttyUSB1
  baud_rate: 9600
  node: 3
log:
  level: info
`)
	cmd := settingsCommand(t, path)
	if err := cmd.Flags().Set("node", "7"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("log-level", "debug"); err != nil {
		t.Fatal(err)
	}

	if err := loadSettings(cmd, nil); err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if settings.Serial.Node != 7 {
		t.Errorf("node = %d, want 7 from flag", settings.Serial.Node)
	}
	if settings.Serial.Port != "/dev/ttyUSB1" || settings.Serial.BaudRate != 9600 {
		t.Errorf("serial = %+v, want file values for unset flags", settings.Serial)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("log level = %v, want debug", logger.GetLevel())
	}
}

func TestLoadSettings_NoFile(t *testing.T) {
	cmd := settingsCommand(t, "")
	if err := cmd.Flags().Set("port", "/dev/ttyACM0"); err != nil {
		t.Fatal(err)
	}

	if err := loadSettings(cmd, nil); err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}
	if settings.Serial.Port != "/dev/ttyACM0" {
		t.Errorf("port = %q", settings.Serial.Port)
	}
	if settings.Serial.BaudRate != midas.DefaultBaudRate {
		t.Errorf("baud = %d, want default %d", settings.Serial.BaudRate, midas.DefaultBaudRate)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("log level = %v, want warn", logger.GetLevel())
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		cmd := settingsCommand(t, filepath.Join(t.TempDir(), "missing.yaml"))
		if err := loadSettings(cmd, nil); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("zero timeout", func(t *testing.T) {
		cmd := settingsCommand(t, "")
		if err := cmd.Flags().Set("timeout", "0s"); err != nil {
			t.Fatal(err)
		}
		if err := loadSettings(cmd, nil); err == nil {
			t.Error("expected error for a zero reply timeout")
		}
	})

	t.Run("node out of range", func(t *testing.T) {
		cmd := settingsCommand(t, "")
		if err := cmd.Flags().Set("node", "16"); err != nil {
			t.Fatal(err)
		}
		err := loadSettings(cmd, nil)
		if !errors.Is(err, midas.ErrInvalidNode) {
			t.Errorf("error = %v, want ErrInvalidNode", err)
		}
	})
}

func TestOpener_RequiresTransport(t *testing.T) {
	cmd := settingsCommand(t, "")
	if err := loadSettings(cmd, nil); err != nil {
		t.Fatalf("loadSettings() error = %v", err)
	}

	if _, _, err := opener(); err == nil {
		t.Error("opener() with no port or URL expected error")
	}
}
