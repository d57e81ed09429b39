package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/inertial_glove/internal/app"
)

// runUntilSignal runs fn until it returns or the process is interrupted.
func runUntilSignal(fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx)
}

func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Read the fingers and stream reports on the configured transport",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.Info("starting inertial glove")
			return runUntilSignal(app.RunGlove)
		},
	}
}

func NewMockCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mock",
		Short: "Print reports from simulated fingers, no hardware needed",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runUntilSignal(app.RunMockConsole)
		},
	}
}

func NewMonitorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Print reports published on the MQTT report topic",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runUntilSignal(app.RunMonitor)
		},
	}
}

func NewDisplayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "display",
		Short: "Show curl bars on an SSD1306 OLED",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runUntilSignal(app.RunDisplay)
		},
	}
}

func NewWebCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Serve the latest hand state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runUntilSignal(app.RunWeb)
		},
	}
}

func NewCalibrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "calibrate <start|stop|reset>",
		Aliases:   []string{"cali"},
		Short:     "Send a calibration command to the glove over MQTT",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"start", "stop", "reset"},
		RunE: func(_ *cobra.Command, args []string) error {
			if err := app.SendCommand("CALIBRATE_" + strings.ToUpper(args[0])); err != nil {
				return err
			}
			fmt.Printf("Calibration %s sent.\n", strings.ToLower(args[0]))
			return nil
		},
	}
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version)
		},
	}
}
