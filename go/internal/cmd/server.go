package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(port string, services *Services) *http.Server {
	router := mux.NewRouter()

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

	registerServices(router, services)
	setupHealthCheck(router)

	handler := c.Handler(router)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func registerServices(router *mux.Router, services *Services) {
	// Match control RPCs
	matchPath, matchHandler := services.Match.Handler()
	router.PathPrefix(matchPath).Handler(services.Verifier.Middleware(matchHandler))

	// Websockets and snapshots
	services.Gateway.RegisterRoutes(router)

	// Operator profile
	services.Profiles.RegisterRoutes(router, services.Verifier)

	// Logos
	services.Logos.RegisterRoutes(router, services.Verifier)
}

func setupHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
