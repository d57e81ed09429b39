// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/inertial_glove/internal/config"
	"github.com/relabs-tech/inertial_glove/internal/glove"
	"github.com/relabs-tech/inertial_glove/internal/sensors"
	"github.com/relabs-tech/inertial_glove/internal/transport"
)

// Longest host message the loop looks at. Calibration commands are far
// shorter; longer frames are truncated and then ignored.
const maxHostMessage = 64

// Reports between debug statistics lines.
const statsEvery = 1000

// clicker is the calibration button as the report loop sees it.
type clicker interface {
	Clicked() bool
}

// RunGlove reads the fingers and sends one report per COMM_DELAY until ctx
// is cancelled.
func RunGlove(ctx context.Context) error {
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("glove: configuration not loaded")
	}

	opener, closeInputs, err := openInputs(cfg)
	if err != nil {
		return err
	}
	defer closeInputs()

	hand, err := BuildHand(cfg, opener)
	if err != nil {
		return err
	}

	tr, err := OpenTransport(cfg)
	if err != nil {
		return err
	}
	defer tr.Close()

	var button clicker
	if cfg.CalibPin != "" {
		b, err := sensors.OpenButton(cfg.CalibPin, cfg.InvertCalib)
		if err != nil {
			return err
		}
		button = b
		logrus.Infof("glove: calibration button on %s", cfg.CalibPin)
	}

	return runLoop(ctx, hand, tr, button, time.Duration(cfg.CommDelay)*time.Millisecond)
}

// OpenTransport connects the transport selected by COMMUNICATION.
func OpenTransport(cfg *config.Config) (transport.Transport, error) {
	switch cfg.Communication {
	case config.CommUSB:
		return transport.OpenSerial(transport.SerialOptions{
			Port:     cfg.SerialPort,
			BaudRate: uint(cfg.SerialBaudRate),
		})
	case config.CommMQTT:
		return transport.DialMQTT(transport.MQTTOptions{
			Broker:       cfg.MQTTBroker,
			ClientID:     cfg.MQTTClientIDGlove,
			ReportTopic:  cfg.TopicReport,
			CommandTopic: cfg.TopicCommand,
		})
	case config.CommWebSocket:
		return transport.ListenWebSocket(cfg.WebSocketAddr)
	case config.CommNone:
		logrus.Warn("glove: COMMUNICATION=none, reports are discarded")
		return transport.Discard{}, nil
	default:
		return nil, fmt.Errorf("unknown communication %q", cfg.Communication)
	}
}

func runLoop(ctx context.Context, hand *glove.Hand, tr transport.Transport, button clicker, delay time.Duration) error {
	if delay <= 0 {
		delay = time.Millisecond
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	ctrl := hand.Controller()
	inbound := make([]byte, maxHostMessage)
	var cycles, ignored int

	logrus.Infof("glove: report loop started, one report every %s", delay)
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("glove: report loop stopped after %d reports", cycles)
			return nil
		case <-ticker.C:
		}

		for tr.HasData() {
			n, ok := tr.ReadData(inbound)
			if !ok {
				break
			}
			if r, ok := glove.ParseCommand(inbound[:n]); ok {
				ctrl.Request(r)
			} else {
				ignored++
			}
		}

		if button != nil && button.Clicked() {
			logrus.Info("glove: calibration button pressed")
			ctrl.Request(glove.RequestReset)
		}

		tr.Output(hand.Cycle())

		cycles++
		if cycles%statsEvery == 0 {
			logrus.Debugf("glove: %d reports sent, calibrating=%v, %d host messages ignored",
				cycles, ctrl.Calibrating(), ignored)
		}
	}
}
