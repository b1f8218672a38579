// Package bridge accepts the page-side instrumentation's websocket connection
// and republishes its events onto the stream. The bridge does no detection;
// it only validates the envelope and forwards.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"feedtrack/internal/config"
	"feedtrack/internal/core"
	"feedtrack/internal/nats"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedtrack_bridge_events_forwarded_total",
		Help: "The total number of host events forwarded to the stream",
	}, []string{"type"})

	eventsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedtrack_bridge_events_rejected_total",
		Help: "The total number of messages dropped as unparseable",
	})
)

type Server struct {
	Logger *slog.Logger
	Config *config.Config
	NATS   *nats.NATS

	server   *http.Server
	upgrader websocket.Upgrader
}

func (s *Server) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "bridge.Server")

	// The instrumentation runs inside the host page, so the Origin header
	// belongs to the host site, not to us.
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	r := chi.NewMux()
	r.Get("/ws", s.handleWS)

	s.server = &http.Server{
		Handler:           r,
		Addr:              s.Config.ListenAddr,
		ReadHeaderTimeout: time.Second,
	}

	return nil
}

func (s *Server) Run(ctx context.Context) error {
	s.Logger.Info("Starting bridge server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		// TODO: figure out a good context here, Run's ctx is cancelled.
		s.server.Shutdown(context.TODO()) //nolint:errcheck
	}()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close() //nolint:errcheck

	s.Logger.Info("instrumentation connected", "remote", conn.RemoteAddr())

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Error("websocket read failed", "error", err)
			} else {
				s.Logger.Info("instrumentation disconnected", "remote", conn.RemoteAddr())
			}
			return
		}

		var event core.HostEvent
		if err := json.Unmarshal(data, &event); err != nil {
			eventsRejected.Inc()
			s.Logger.Warn("dropping unparseable message", "error", err)
			continue
		}

		if err := s.NATS.PublishEvent(r.Context(), &event); err != nil {
			s.Logger.Error("failed to publish event", "type", event.Type, "error", err)
			continue
		}

		eventsForwarded.WithLabelValues(string(event.Type)).Inc()
	}
}
