package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/voteroom/go/internal/config"
	"github.com/mcdev12/voteroom/go/internal/gateway"
	"github.com/mcdev12/voteroom/go/internal/metrics"
	"github.com/mcdev12/voteroom/go/internal/relay"
	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/mcdev12/voteroom/go/internal/voteclock"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Registry   *room.Registry
	Gateway    *gateway.Service
	Prometheus *prometheus.Registry

	nc     *nats.Conn
	ingest *relay.VoteIngest
}

func setupServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	// Prometheus → clock → relay → registry → gateway
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(promRegistry)

	clock := voteclock.NewSyncedClock(clockwork.NewRealClock(), time.Duration(cfg.Clock.Offset))

	s := &Services{Prometheus: promRegistry}

	var notificationRelay room.Relay = relay.NoopRelay{}
	if cfg.NATS.URL != "" {
		nc, js, err := relay.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		natsRelay, err := relay.NewNATSRelay(ctx, nc, js, cfg.NATS.SubjectPrefix)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("set up notification relay: %w", err)
		}
		s.nc = nc
		notificationRelay = natsRelay
	} else {
		log.Warn().Msg("NATS_URL not set, notification relay and audience vote ingest disabled")
	}

	s.Registry = room.NewRegistry(clock, cfg.Room(),
		room.WithRelay(notificationRelay),
		room.WithMetrics(collector),
	)

	if s.nc != nil {
		s.ingest = relay.NewVoteIngest(s.nc, cfg.NATS.SubjectPrefix, s.Registry)
		if err := s.ingest.Start(); err != nil {
			s.nc.Close()
			return nil, err
		}
	}

	s.Gateway = gateway.NewService(gateway.ConnectionConfig{
		WriteTimeout:    time.Duration(cfg.WebSocket.WriteTimeout),
		ReadTimeout:     time.Duration(cfg.WebSocket.ReadTimeout),
		PingInterval:    time.Duration(cfg.WebSocket.PingInterval),
		MaxMessageSize:  int64(cfg.WebSocket.MaxMessageSize),
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      cfg.WebSocket.SendBuffer,
		CheckOrigin:     gateway.OriginChecker(cfg.WebSocket.AllowedOrigins),
	}, s.Registry)

	return s, nil
}

// Close stops intake first, then rooms, then the NATS connection.
func (s *Services) Close() {
	if s.ingest != nil {
		if err := s.ingest.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop audience vote ingest")
		}
	}
	s.Gateway.Stop()
	s.Registry.Shutdown()
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
}
