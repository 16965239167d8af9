package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"footysync/ingestion/internal/repository"
	"footysync/ingestion/internal/sync"
)

// triggerServer exposes the manual sync triggers. A handled run always
// answers 200, including noop outcomes like lock contention; only an
// unrecovered run failure is a 500.
type triggerServer struct {
	delta    *sync.Delta
	enricher *sync.Enricher
	db       *repository.Database
}

func newTriggerServer(delta *sync.Delta, enricher *sync.Enricher, db *repository.Database) *triggerServer {
	return &triggerServer{delta: delta, enricher: enricher, db: db}
}

// ListenAndServe runs the trigger server until the context is done.
func (s *triggerServer) ListenAndServe(ctx context.Context, port string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync/delta", s.handleDelta)
	mux.HandleFunc("/sync/enrichment", s.handleEnrichment)
	mux.HandleFunc("/health", s.handleHealth)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Trigger server shutdown failed")
		}
	}()

	log.Info().Str("port", port).Msg("Starting trigger server")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Trigger server failed")
	}
}

func (s *triggerServer) handleDelta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	var req sync.DeltaRequest
	body, err := io.ReadAll(r.Body)
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("invalid request body: %v", err)})
			return
		}
	}

	res, err := s.delta.Run(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": res.Message})
		return
	}
	writeResult(w, res)
}

func (s *triggerServer) handleEnrichment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	var req sync.EnrichRequest
	body, err := io.ReadAll(r.Body)
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": fmt.Sprintf("invalid request body: %v", err)})
			return
		}
	}

	res, err := s.enricher.Run(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": res.Message})
		return
	}
	writeResult(w, res)
}

func (s *triggerServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"pool":   s.db.PoolStats(),
	})
}

func writeResult(w http.ResponseWriter, res sync.Result) {
	payload := map[string]any{
		"status":    res.Status,
		"message":   res.Message,
		"processed": res.Processed,
	}
	if res.Details != nil {
		payload["details"] = res.Details
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port string, db *repository.Database) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	log.Info().Str("port", port).Msg("Starting metrics server")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
