package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mattsre/keysprint/go/internal/race/gateway"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerRoutes(mux, services)

	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerRoutes(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("GET /health", services.Gateway.HandleHealth)

	// Websocket endpoints
	mux.Handle("GET /ws/race", services.Gateway)
	mux.Handle("GET /ws/practice", services.Practice)

	// REST API
	api := newAPIHandlers(services)
	mux.HandleFunc("GET /api/texts", api.handleGetText)
	mux.HandleFunc("GET /api/leaderboard", api.handleLeaderboard)
	mux.HandleFunc("GET /api/results/{id}", api.handleGetResult)
	mux.HandleFunc("GET /api/results", api.handleListResults)
	mux.HandleFunc("POST /api/results", api.handlePostResult)
	mux.HandleFunc("GET /api/rooms/available", gateway.HandleAvailableRooms(services.Coordinator))
	mux.HandleFunc("GET /api/notifications", api.handleListNotifications)
	mux.HandleFunc("POST /api/notifications/{id}/read", api.handleMarkNotificationRead)
}
