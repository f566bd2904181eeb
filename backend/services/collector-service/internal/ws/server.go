package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/models"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
)

// SnapshotFunc returns the current status array.
type SnapshotFunc func(ctx context.Context) ([]models.OccupancyReading, error)

// Server upgrades dashboard requests to the live feed.
type Server struct {
	hub          *Hub
	snapshot     SnapshotFunc
	logger       *zap.Logger
	writeTimeout time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(hub *Hub, snapshot SnapshotFunc, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Server {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &Server{
		hub:          hub,
		snapshot:     snapshot,
		logger:       logger,
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleStream is HTTP handler for GET /api/stream. The client joins the hub before the
// snapshot is read, so a reading accepted meanwhile reaches it as a later frame.
func (s *Server) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, s.writeTimeout, s.pingInterval, s.logger, s.hub.Remove)
	s.hub.Add(client)

	payload, err := s.snapshotPayload(r.Context())
	if err != nil {
		s.logger.Error("failed to load stream snapshot", zap.Error(err))
		s.hub.Remove(client)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "internal error"),
			time.Now().Add(s.writeTimeout))
		_ = conn.Close()
		return
	}

	go client.Start(payload)
	s.logger.Info("stream client connected", zap.String("remote_addr", r.RemoteAddr))
}

func (s *Server) snapshotPayload(ctx context.Context) ([]byte, error) {
	readings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if readings == nil {
		readings = []models.OccupancyReading{}
	}
	return json.Marshal(SnapshotMessage{Type: MessageSnapshot, Readings: readings})
}
