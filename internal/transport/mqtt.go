// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// MQTTOptions selects the broker and topics.
type MQTTOptions struct {
	Broker       string // e.g. tcp://localhost:1883
	ClientID     string
	ReportTopic  string
	CommandTopic string
}

const mqttDisconnectQuiesce = 250 // ms

// MQTT publishes reports to a topic and queues messages from the command
// topic.
type MQTT struct {
	*Queue
	client mqtt.Client
	opts   MQTTOptions
}

// DialMQTT connects to the broker and subscribes to the command topic.
func DialMQTT(opts MQTTOptions) (*MQTT, error) {
	m := &MQTT{Queue: NewQueue(DefaultQueueSize), opts: opts}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second).
		SetOnConnectHandler(m.subscribe)

	m.client = mqtt.NewClient(clientOpts)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", opts.Broker, token.Error())
	}
	logrus.Infof("mqtt: connected to MQTT broker at %s", opts.Broker)
	return m, nil
}

// subscribe runs on every (re)connect so the command subscription survives
// broker restarts.
func (m *MQTT) subscribe(c mqtt.Client) {
	if m.opts.CommandTopic == "" {
		return
	}
	token := c.Subscribe(m.opts.CommandTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		m.Push(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		logrus.Warnf("mqtt: subscribe %s: %v", m.opts.CommandTopic, token.Error())
		return
	}
	logrus.Infof("mqtt: subscribed to %s", m.opts.CommandTopic)
}

// Output publishes without waiting for the broker's acknowledgement.
func (m *MQTT) Output(report []byte) {
	if !m.client.IsConnectionOpen() {
		logrus.Debug("mqtt: not connected, report dropped")
		return
	}
	payload := make([]byte, len(report))
	copy(payload, report)
	m.client.Publish(m.opts.ReportTopic, 0, false, payload)
}

func (m *MQTT) Close() error {
	m.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}
