// Command logplayd is the long-running playback daemon: it opens a log
// Store, exposes an HTTP status endpoint for operators, and keeps the
// process alive so that Sessions started against it (via the package API
// or a future RPC surface) can run to completion.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/darkden-lab/logplay/internal/config"
	"github.com/darkden-lab/logplay/internal/diag"
	"github.com/darkden-lab/logplay/internal/fabric"
	"github.com/darkden-lab/logplay/internal/playback"
	"github.com/darkden-lab/logplay/internal/store"
)

func main() {
	cfg := config.Load()
	diag.SetVerbosity(cfg.DefaultVerbosity)

	ctx := context.Background()

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		log.Printf("WARNING: store open failed: %v (daemon will report unhealthy)", err)
	}

	factory := playback.New(st, nodeFactoryFor(cfg))
	defer factory.Close()

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthzHandler).Methods("GET")
	r.HandleFunc("/status", statusHandler(factory)).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down logplayd...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("logplayd listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("logplayd failed to start: %v", err)
	}
	log.Println("logplayd stopped")
}

// nodeFactoryFor selects the fabric backing: Kafka when brokers are
// configured, the in-process fabric otherwise (single-node demo use).
func nodeFactoryFor(cfg *config.Config) playback.NodeFactory {
	brokers := splitBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 {
		return func() (fabric.Node, error) {
			return fabric.NewInProcNode(), nil
		}
	}
	return func() (fabric.Node, error) {
		return fabric.NewKafkaNode(brokers)
	}
}

func splitBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statusHandler(f *playback.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !f.Valid() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]any{"store_valid": false})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"store_valid": true})
	}
}
