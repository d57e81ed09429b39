// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/inertial_glove/internal/config"
)

// RunMockConsole drives a simulated hand with the configured topology and
// prints its decoded reports, no hardware or broker needed.
func RunMockConsole(ctx context.Context) error {
	cfg := *config.Get()
	cfg.InputSource = config.SourceMock

	hand, err := BuildHand(&cfg, &mockOpener{analogMax: cfg.AnalogMax})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := printReport(os.Stdout, string(hand.Cycle())); err != nil {
			logrus.Warnf("mock: %v", err)
		}
	}
}
