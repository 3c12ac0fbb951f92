package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	NATSConnected *bool    `json:"nats_connected,omitempty"`
	OpenRooms     int      `json:"open_rooms"`
	Connections   int      `json:"connections"`
	Errors        []string `json:"errors,omitempty"`
}

// Check reports unhealthy only when a configured NATS connection is down;
// rooms keep working without the relay.
func (s *Services) Check() HealthStatus {
	status := HealthStatus{
		Healthy:     true,
		OpenRooms:   s.Registry.Count(),
		Connections: s.Gateway.Connections(),
	}
	if s.nc != nil {
		connected := s.nc.IsConnected()
		status.NATSConnected = &connected
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}
	return status
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := services.Check()
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
