package gateway

import (
	"net/http"

	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

// Service is the websocket front end of the vote room registry.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
}

func NewService(config ConnectionConfig, registry *room.Registry) *Service {
	cm := NewConnectionManager(config, registry)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, registry),
	}
}

// RegisterRoutes registers the gateway HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("vote room gateway routes registered")
}

// Stop closes every client connection.
func (s *Service) Stop() {
	s.connectionManager.CloseAll()
	log.Info().Msg("vote room gateway stopped")
}

// Connections returns the number of live websocket connections.
func (s *Service) Connections() int {
	return s.connectionManager.Count()
}
