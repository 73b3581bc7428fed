package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tickerdata/internal/config"
	"github.com/seenimoa/tickerdata/internal/pipeline"
	"github.com/seenimoa/tickerdata/pkg/models"
	"github.com/seenimoa/tickerdata/pkg/utils"
)

// ErrorResponse is the JSON error shape for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const (
	fundamentalsTimeout = 90 * time.Second
	dataTimeout         = 30 * time.Second

	defaultMaxTrades = 10
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleFundamentals serves merged, KPI-enriched statement data keyed by
// ticker. With source=script the external scripted fetcher is used and
// its payload passed through.
func (s *Server) handleFundamentals(w http.ResponseWriter, r *http.Request) {
	tickers, ok := tickersParam(w, r, "ticker")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), fundamentalsTimeout)
	defer cancel()

	if r.URL.Query().Get("source") == "script" {
		out := make(map[string]json.RawMessage, len(tickers))
		for _, t := range tickers {
			raw, err := s.orch.FundamentalsFromScript(ctx, t)
			if err != nil {
				writePipelineError(w, err)
				return
			}
			out[t] = raw
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	out := make(map[string]*models.Fundamentals, len(tickers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tickers {
		g.Go(func() error {
			f, err := s.orch.Fundamentals(gctx, t)
			if err != nil {
				if len(tickers) == 1 {
					return err
				}
				log.Printf("[api] fundamentals %s: %v (skipped)", t, err)
				return nil
			}
			mu.Lock()
			out[t] = f
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDividends(w http.ResponseWriter, r *http.Request) {
	tickers, ok := tickersParam(w, r, "ticker")
	if !ok {
		return
	}
	max := intParam(r, "maxDividends", 0)

	ctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	out, err := s.orch.Dividends(ctx, tickers)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	if max > 0 {
		for t, entries := range out {
			if len(entries) > max {
				out[t] = entries[:max]
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSharesOutstanding(w http.ResponseWriter, r *http.Request) {
	tickers, ok := tickersParam(w, r, "ticker")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	out, err := s.orch.SharesOutstanding(ctx, tickers)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsiderTrades(w http.ResponseWriter, r *http.Request) {
	tickers, ok := tickersParam(w, r, "tickers")
	if !ok {
		return
	}
	max := intParam(r, "maxTrades", defaultMaxTrades)

	ctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	out, err := s.orch.InsiderTrades(ctx, tickers)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	if max > 0 {
		for t, trades := range out {
			if len(trades) > max {
				out[t] = trades[:max]
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	tickers, ok := tickersParam(w, r, "ticker")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	out, err := s.orch.Sentiment(ctx, tickers)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarketCap(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	mc, err := s.orch.MarketCap(ctx, symbol)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

func (s *Server) handleSearchTickers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dataTimeout)
	defer cancel()

	raw, err := s.orch.SearchTickers(ctx, query)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw) //nolint:errcheck
}

// handleConfigKeys reports the presence of configured provider keys,
// masked.
func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, config.CheckAPIKeys(s.cfg))
}

// tickersParam parses and validates the ticker list parameter, writing
// the 400 itself when invalid.
func tickersParam(w http.ResponseWriter, r *http.Request, name string) ([]string, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, http.StatusBadRequest, name+" is required", "")
		return nil, false
	}
	tickers := utils.ParseTickerList(raw)
	if len(tickers) == 0 {
		writeError(w, http.StatusBadRequest, "no valid tickers", "got "+strconv.Quote(raw))
		return nil, false
	}
	return tickers, true
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// writePipelineError maps a pipeline failure onto the transport.
func writePipelineError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		writeError(w, perr.HTTPStatus(), perr.Op+" failed", perr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error", err.Error())
}
