package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/inertial_glove/internal/config"
	"github.com/relabs-tech/inertial_glove/internal/glove"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
)

func connectMQTT(cfg *config.Config, clientID, component string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%s: connect to MQTT broker %s: %w", component, cfg.MQTTBroker, token.Error())
	}
	logrus.Infof("%s: connected to MQTT broker at %s", component, cfg.MQTTBroker)
	return client, nil
}

// RunMonitor prints every report published on TOPIC_REPORT until ctx is
// cancelled.
func RunMonitor(ctx context.Context) error {
	cfg := config.Get()
	client, err := connectMQTT(cfg, cfg.MQTTClientIDMonitor, "monitor")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicReport, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printReport(os.Stdout, string(msg.Payload())); err != nil {
			logrus.Warnf("monitor: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logrus.Infof("monitor: subscribed to %s", cfg.TopicReport)

	<-ctx.Done()
	logrus.Info("monitor: shutting down")
	return nil
}

// SendCommand publishes one calibration command to TOPIC_COMMAND.
func SendCommand(command string) error {
	cfg := config.Get()
	msg := strings.ToUpper(strings.TrimSpace(command))
	if _, ok := glove.ParseCommand([]byte(msg)); !ok {
		return fmt.Errorf("unknown calibration command %q", command)
	}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDMonitor+"-cmd", "command")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Publish(cfg.TopicCommand, 1, false, msg)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("command: publish %s: %w", cfg.TopicCommand, token.Error())
	}
	logrus.Infof("command: sent %s to %s", msg, cfg.TopicCommand)
	return nil
}

func printReport(w io.Writer, report string) error {
	fields, err := protocol.Decode(report)
	if err != nil {
		return fmt.Errorf("decode report %q: %w", report, err)
	}
	_, err = fmt.Fprintln(w, formatHand(fields))
	return err
}

// formatHand renders one line per report: curl per finger, splay when
// present, knuckles for multi-knuckle fingers.
func formatHand(fields []protocol.Field) string {
	byFinger := protocol.GroupByFinger(fields)

	var sb strings.Builder
	sb.WriteString("[GLOVE]")
	for _, t := range protocol.Fingers {
		v, ok := byFinger[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "  %s=%5d", t, v.Curl)
		if len(v.Knuckles) > 0 {
			sb.WriteString(" (")
			for i, k := range v.Knuckles {
				if i > 0 {
					sb.WriteByte(' ')
				}
				fmt.Fprintf(&sb, "%d", k)
			}
			sb.WriteByte(')')
		}
		if v.HasSplay {
			fmt.Fprintf(&sb, " splay=%d", v.Splay)
		}
	}
	return sb.String()
}
