// Package api provides the HTTP REST API server for tickerdata.
//
// It exposes per-ticker financial data endpoints: enriched fundamentals,
// dividends, shares outstanding, insider trades, news sentiment, market
// capitalization, and ticker search.
package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/tickerdata/internal/alphavantage"
	"github.com/seenimoa/tickerdata/internal/config"
	"github.com/seenimoa/tickerdata/internal/infra"
	"github.com/seenimoa/tickerdata/internal/pipeline"
	"github.com/seenimoa/tickerdata/internal/procfetch"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	orch   *pipeline.Orchestrator
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) *Server {
	client := alphavantage.New(alphavantage.Options{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     cfg.Provider.APIKey,
		MaxRetries: cfg.Provider.MaxRetries,
		Backoff:    cfg.Provider.Backoff(),
		RateLimit:  cfg.Provider.RateLimit,
		RateWindow: cfg.Provider.RateWindow(),
	})
	runner := procfetch.NewRunner(
		cfg.Fetcher.Interpreter,
		cfg.Fetcher.FallbackInterpreter,
		cfg.Fetcher.ScriptDir,
		cfg.Fetcher.Timeout(),
	)
	orch := pipeline.New(pipeline.Options{
		Provider:       client,
		Runner:         runner,
		Cache:          infra.NewCache(cfg.Pipeline.CacheTTL()),
		AnnualLimit:    cfg.Pipeline.AnnualLimit,
		QuarterlyLimit: cfg.Pipeline.QuarterlyLimit,
	})
	return newServer(cfg, orch)
}

// newServer wires an explicit orchestrator; tests use it directly.
func newServer(cfg *config.Config, orch *pipeline.Orchestrator) *Server {
	s := &Server{cfg: cfg, orch: orch}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// WarmCache pre-populates the fundamentals cache before serving.
func (s *Server) WarmCache(ctx context.Context, tickers []string, perTicker time.Duration) {
	s.orch.WarmCache(ctx, tickers, perTicker)
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Per-ticker data
		r.Get("/data/fundamentals", s.handleFundamentals)
		r.Get("/data/dividends", s.handleDividends)
		r.Get("/data/shares-outstanding", s.handleSharesOutstanding)
		r.Get("/data/insider-trades", s.handleInsiderTrades)
		r.Get("/data/sentiment", s.handleSentiment)

		// Company lookup
		r.Get("/marketcap", s.handleMarketCap)
		r.Get("/search/tickers", s.handleSearchTickers)

		// Configuration
		r.Get("/config/keys", s.handleConfigKeys)
	})

	return r
}
