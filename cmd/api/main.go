package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/harbortow/voicegate/internal/config"
	"github.com/harbortow/voicegate/internal/handler"
	callhandler "github.com/harbortow/voicegate/internal/handler/call"
	callmodel "github.com/harbortow/voicegate/internal/model/call"
	"github.com/harbortow/voicegate/internal/service/automation"
	"github.com/harbortow/voicegate/internal/service/bridge"
	"github.com/harbortow/voicegate/internal/service/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.Realtime.Enabled() {
		log.Fatal("OPENAI_API_KEY is required")
	}

	registry := callmodel.NewRegistry()

	var greeter callhandler.Greeter
	var toolDispatch bridge.Automation
	var deliverer transcript.Deliverer
	if cfg.Automation.Enabled() {
		client := automation.NewClient(cfg.Automation)
		greeter = client
		toolDispatch = client
		deliverer = client
		log.Println("automation webhook configured")
	} else {
		log.Println("AUTOMATION_WEBHOOK_URL not set, tool calls and transcript delivery disabled")
	}

	recorder := transcript.NewRecorder(deliverer)
	router := handler.NewRouter(registry, recorder, greeter, toolDispatch, cfg.Realtime)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Voicegate listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
