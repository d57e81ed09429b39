package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/inertial_glove/internal/config"
	"github.com/relabs-tech/inertial_glove/internal/protocol"
)

// HandState is the JSON view of the latest report.
type HandState struct {
	Report  string                            `json:"report"`
	Fingers map[string]*protocol.FingerValues `json:"fingers"`
	Fields  []protocol.Field                  `json:"fields"`
}

type latestHand struct {
	mu    sync.RWMutex
	state HandState
	have  bool
}

func (l *latestHand) update(report string) error {
	fields, err := protocol.Decode(report)
	if err != nil {
		return err
	}
	fingers := make(map[string]*protocol.FingerValues)
	for t, v := range protocol.GroupByFinger(fields) {
		fingers[t.String()] = v
	}

	l.mu.Lock()
	l.state = HandState{Report: report, Fingers: fingers, Fields: fields}
	l.have = true
	l.mu.Unlock()
	return nil
}

func (l *latestHand) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.have {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(l.state); err != nil {
		logrus.Warnf("web: json encode error: %v", err)
	}
}

// RunWeb serves the latest hand state at /api/hand and static files from
// ./web until ctx is cancelled.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	latest := &latestHand{}

	client, err := connectMQTT(cfg, cfg.MQTTClientIDMonitor+"-web", "web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	token := client.Subscribe(cfg.TopicReport, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := latest.update(string(msg.Payload())); err != nil {
			logrus.Debugf("web: report decode error: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	logrus.Infof("web: subscribed to %s", cfg.TopicReport)

	mux := http.NewServeMux()
	mux.Handle("/api/hand", latest)
	mux.Handle("/", http.FileServer(http.Dir("web")))

	srv := &http.Server{Addr: cfg.WebServerAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logrus.Infof("web: server listening on %s", cfg.WebServerAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
