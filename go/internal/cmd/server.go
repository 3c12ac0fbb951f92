package main

import (
	"net/http"
	"time"

	"github.com/mcdev12/voteroom/go/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg *config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: allowedOrigins(cfg),
		AllowedHeaders: []string{"*"},
	})

	services.Gateway.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(services.Prometheus, promhttp.HandlerOpts{}))
	setupHealthCheck(mux, services)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.WebSocket.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.WebSocket.AllowedOrigins
}
