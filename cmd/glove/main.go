// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/relabs-tech/inertial_glove/internal/config"
)

var (
	logLevel   = "info"
	configPath = "glove_config.txt"
)

// Set with -ldflags "-X main.version=...".
var version = "dev"

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func main() {
	if err := NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glove",
		Short: "glove reads the finger sensors and streams hand reports to the host",
		Long: `glove reads the finger sensors of a hand-tracking glove, calibrates
them and streams alpha-encoded hand reports to the host driver over USB
serial, MQTT or WebSocket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}
			if cmd.Name() == "version" {
				return nil
			}
			if err := config.InitGlobal(configPath); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logrus.Debugf("config: loaded %s", configPath)
			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVarP(&configPath, "config", "c", configPath, "config file path")

	cmd.AddCommand(
		NewRunCommand(),
		NewMockCommand(),
		NewMonitorCommand(),
		NewDisplayCommand(),
		NewWebCommand(),
		NewCalibrateCommand(),
		NewVersionCommand(),
	)

	return cmd
}
