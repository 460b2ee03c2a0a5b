// Command server runs the parley conversational relay.
//
// Configuration comes from a YAML file (discovered or via PARLEY_CONFIG)
// layered with PARLEY_* environment overrides; see pkg/config. The most
// common overrides:
//
//	PARLEY_BACKEND_URL     - Chat Completions backend URL (required)
//	PARLEY_MODEL           - Backend model name (required)
//	PARLEY_WEBHOOK_SECRET  - Shared HMAC secret for webhook deliveries (required)
//	PARLEY_PORT            - Listen port (default: 8080)
//	PARLEY_STORE           - Conversation store: "memory" or "postgres"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleyhq/parley/pkg/admin"
	"github.com/parleyhq/parley/pkg/auth"
	"github.com/parleyhq/parley/pkg/auth/apikey"
	authjwt "github.com/parleyhq/parley/pkg/auth/jwt"
	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/debug"
	"github.com/parleyhq/parley/pkg/engine"
	"github.com/parleyhq/parley/pkg/observability"
	"github.com/parleyhq/parley/pkg/provider/openaicompat"
	"github.com/parleyhq/parley/pkg/store"
	"github.com/parleyhq/parley/pkg/store/memory"
	"github.com/parleyhq/parley/pkg/store/postgres"
	"github.com/parleyhq/parley/pkg/webhook"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Completion backend.
	prov := openaicompat.NewClient(cfg.Engine.BackendURL, cfg.Engine.APIKey, cfg.Engine.RequestTimeout)
	defer prov.Close()

	// Conversation store.
	st, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating conversation store: %w", err)
	}
	defer st.Close()

	// Response engine.
	eng, err := engine.New(prov, engine.Config{
		Model:       cfg.Engine.Model,
		Temperature: cfg.Engine.Temperature,
		TopP:        cfg.Engine.TopP,
		MaxTokens:   cfg.Engine.MaxTokens,
		MaxRetries:  cfg.Engine.MaxRetries,
		BackoffBase: cfg.Engine.BackoffBase,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	mux := http.NewServeMux()

	// Inbound webhook.
	wh := webhook.NewHandler(eng, st, webhook.Config{
		Secret:           cfg.Webhook.Secret,
		MaxMessageLength: cfg.Webhook.MaxMessageLength,
		HistoryLimit:     cfg.Store.MaxHistory,
	})
	mux.Handle("POST "+cfg.Webhook.Path, wh)

	// Admin surface behind the auth chain.
	chain, err := buildAuthChain(cfg)
	if err != nil {
		return fmt.Errorf("creating auth chain: %w", err)
	}
	adminMux := http.NewServeMux()
	admin.NewHandler(eng, st, prov).Register(adminMux)
	mux.Handle("/admin/", auth.Middleware(chain)(adminMux))

	// Operational endpoints.
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.HealthCheck(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      observability.MetricsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.Server.Port,
			"backend", cfg.Engine.BackendURL,
			"model", cfg.Engine.Model,
			"store", cfg.Store.Type,
			"webhook_path", cfg.Webhook.Path,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func buildStore(ctx context.Context, cfg *config.Config) (store.ConversationStore, error) {
	switch cfg.Store.Type {
	case "memory":
		slog.Info("conversation store", "type", "memory", "max_history", cfg.Store.MaxHistory)
		return memory.New(cfg.Store.MaxHistory), nil
	case "postgres":
		slog.Info("conversation store", "type", "postgres", "max_history", cfg.Store.MaxHistory)
		return postgres.New(ctx, postgres.Config{
			DSN:            cfg.Store.Postgres.DSN,
			MaxHistory:     cfg.Store.MaxHistory,
			MaxConns:       cfg.Store.Postgres.MaxConns,
			MigrateOnStart: cfg.Store.Postgres.MigrateOnStart,
		})
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

func buildAuthChain(cfg *config.Config) (*auth.AuthChain, error) {
	switch cfg.Auth.Type {
	case "", "none":
		slog.Warn("admin endpoints are unauthenticated; set auth.type for production")
		return &auth.AuthChain{DefaultDecision: auth.Yes}, nil
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key:      k.Key,
				Identity: auth.Identity{Subject: k.Subject},
			})
		}
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(entries)},
			DefaultDecision: auth.No,
		}, nil
	case "jwt":
		authn := authjwt.New(authjwt.Config{
			Secret:   cfg.Auth.JWT.Secret,
			Issuer:   cfg.Auth.JWT.Issuer,
			Audience: cfg.Auth.JWT.Audience,
		})
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{authn},
			DefaultDecision: auth.No,
		}, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Auth.Type)
	}
}
