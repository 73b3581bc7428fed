// Package pipeline coordinates per-ticker data fetching: it fans out to
// the provider, merges and enriches statement data, and normalizes the
// auxiliary feeds (dividends, insider trades, shares outstanding,
// sentiment, market cap) into response-ready shapes.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tickerdata/internal/alphavantage"
	"github.com/seenimoa/tickerdata/internal/infra"
	"github.com/seenimoa/tickerdata/internal/procfetch"
	"github.com/seenimoa/tickerdata/internal/report"
	"github.com/seenimoa/tickerdata/pkg/models"
	"github.com/seenimoa/tickerdata/pkg/utils"
)

// Provider is the market-data surface the orchestrator consumes.
// *alphavantage.Client satisfies it.
type Provider interface {
	Statements(ctx context.Context, function, symbol string) (*models.Fundamentals, error)
	Overview(ctx context.Context, symbol string) (*models.MarketCap, error)
	Dividends(ctx context.Context, symbol string) ([]models.DividendEntry, error)
	InsiderTransactions(ctx context.Context, symbol string, limit int) ([]models.InsiderTrade, error)
	SharesOutstanding(ctx context.Context, symbol string) ([]models.SharesOutstandingEntry, error)
	MonthlyCloses(ctx context.Context, symbol string) (map[string]float64, error)
	NewsSentiment(ctx context.Context, symbol string) (*models.SentimentFeed, error)
	SymbolSearch(ctx context.Context, keywords string) (json.RawMessage, error)
}

const (
	defaultAnnualLimit    = 20
	defaultQuarterlyLimit = 12
	// Feed items whose best relevance score is at or below this are
	// noise for a single-ticker view.
	defaultRelevanceThreshold = 0.2
	// How far a monthly close may sit from a shares-outstanding
	// report date and still price it.
	priceJoinWindowDays = 10
)

// Options configures an Orchestrator.
type Options struct {
	Provider       Provider
	Runner         *procfetch.Runner
	Cache          *infra.Cache
	AnnualLimit    int
	QuarterlyLimit int
	// RelevanceThreshold filters sentiment feed items; zero means the
	// default.
	RelevanceThreshold float64
	// InsiderLimit caps insider transactions per ticker; zero means
	// uncapped.
	InsiderLimit int
}

// Orchestrator is the top-level per-ticker coordinator. It is safe for
// concurrent use; all per-request state is local to each call.
type Orchestrator struct {
	provider  Provider
	runner    *procfetch.Runner
	cache     *infra.Cache
	annual    int
	quarterly int
	relevance float64
	insider   int
}

// New builds an Orchestrator, filling unset options with defaults.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		provider:  opts.Provider,
		runner:    opts.Runner,
		cache:     opts.Cache,
		annual:    opts.AnnualLimit,
		quarterly: opts.QuarterlyLimit,
		relevance: opts.RelevanceThreshold,
		insider:   opts.InsiderLimit,
	}
	if o.annual <= 0 {
		o.annual = defaultAnnualLimit
	}
	if o.quarterly <= 0 {
		o.quarterly = defaultQuarterlyLimit
	}
	if o.relevance == 0 {
		o.relevance = defaultRelevanceThreshold
	}
	return o
}

// checkTicker normalizes and validates one ticker parameter.
func checkTicker(op, raw string) (string, *Error) {
	t := utils.NormalizeTicker(raw)
	if t == "" {
		return "", errInvalidInput(op, errors.New("ticker is required"))
	}
	if !utils.ValidTicker(t) {
		return "", errInvalidInput(op, fmt.Errorf("invalid ticker %q", raw))
	}
	return t, nil
}

// wrapFetch classifies a provider-path error. The client degrades soft
// failures itself, so anything surfacing here is cancellation or a
// genuine orchestration fault.
func wrapFetch(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstreamTimeout, Op: op, Err: err}
	}
	return errInternal(op, err)
}

// Fundamentals fetches, merges, and enriches the three financial
// statements for a ticker. The statement calls run concurrently; an
// empty series from one statement narrows the result but never fails
// the request.
func (o *Orchestrator) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	const op = "fundamentals"
	symbol, perr := checkTicker(op, ticker)
	if perr != nil {
		return nil, perr
	}

	if o.cache != nil {
		if v, ok := o.cache.Get(infra.CacheKey(op, symbol)); ok {
			return v.(*models.Fundamentals), nil
		}
	}

	var balance, income, cashflow *models.Fundamentals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = o.provider.Statements(gctx, alphavantage.FuncBalanceSheet, symbol)
		return err
	})
	g.Go(func() (err error) {
		income, err = o.provider.Statements(gctx, alphavantage.FuncIncomeStatement, symbol)
		return err
	})
	g.Go(func() (err error) {
		cashflow, err = o.provider.Statements(gctx, alphavantage.FuncCashFlow, symbol)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapFetch(op, err)
	}

	// Truncated again after merging: misaligned fiscal dates across
	// statements can push the merged union past the period limit.
	result := &models.Fundamentals{
		Annual: report.EnrichAll(report.Truncate(report.Merge(
			report.Truncate(balance.Annual, o.annual),
			report.Truncate(income.Annual, o.annual),
			report.Truncate(cashflow.Annual, o.annual),
		), o.annual)),
		Quarterly: report.EnrichAll(report.Truncate(report.Merge(
			report.Truncate(balance.Quarterly, o.quarterly),
			report.Truncate(income.Quarterly, o.quarterly),
			report.Truncate(cashflow.Quarterly, o.quarterly),
		), o.quarterly)),
	}

	if o.cache != nil {
		o.cache.Set(infra.CacheKey(op, symbol), result)
	}
	return result, nil
}

// FundamentalsFromScript fetches fundamentals through the external
// scripted fetcher instead of the in-process provider client.
func (o *Orchestrator) FundamentalsFromScript(ctx context.Context, ticker string) (json.RawMessage, error) {
	const op = "fundamentals script"
	symbol, perr := checkTicker(op, ticker)
	if perr != nil {
		return nil, perr
	}
	if o.runner == nil {
		return nil, errInternal(op, errors.New("no script runner configured"))
	}

	out, err := o.runner.Run(ctx, "fetch_fundamentals_data.py", symbol)
	if err != nil {
		return nil, classifyFetch(op, err)
	}
	return out, nil
}

// MarketCap looks up the market capitalization for a ticker.
func (o *Orchestrator) MarketCap(ctx context.Context, ticker string) (*models.MarketCap, error) {
	const op = "marketcap"
	symbol, perr := checkTicker(op, ticker)
	if perr != nil {
		return nil, perr
	}

	if o.cache != nil {
		if v, ok := o.cache.Get(infra.CacheKey(op, symbol)); ok {
			return v.(*models.MarketCap), nil
		}
	}

	mc, err := o.provider.Overview(ctx, symbol)
	if err != nil {
		return nil, wrapFetch(op, err)
	}
	if o.cache != nil {
		o.cache.Set(infra.CacheKey(op, symbol), mc)
	}
	return mc, nil
}

// SearchTickers runs a symbol search and returns the provider payload.
func (o *Orchestrator) SearchTickers(ctx context.Context, query string) (json.RawMessage, error) {
	const op = "search"
	if query == "" {
		return nil, errInvalidInput(op, errors.New("query is required"))
	}
	raw, err := o.provider.SymbolSearch(ctx, query)
	if err != nil {
		return nil, wrapFetch(op, err)
	}
	return raw, nil
}

// forEachTicker fans one fetch out over a ticker list, collecting
// per-ticker results. A failed ticker is logged and skipped so one bad
// symbol cannot empty the whole response; only an empty ticker list is
// an error.
func forEachTicker[T any](ctx context.Context, op string, tickers []string,
	fetch func(ctx context.Context, symbol string) (T, error)) (map[string]T, *Error) {

	if len(tickers) == 0 {
		return nil, errInvalidInput(op, errors.New("at least one ticker is required"))
	}

	out := make(map[string]T, len(tickers))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tickers {
		symbol, perr := checkTicker(op, t)
		if perr != nil {
			return nil, perr
		}
		g.Go(func() error {
			v, err := fetch(gctx, symbol)
			if err != nil {
				log.Printf("[pipeline] %s: %s: %v (skipped)", op, symbol, err)
				return nil
			}
			mu.Lock()
			out[symbol] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures are skipped
	return out, nil
}

// Dividends fetches dividend histories for one or more tickers.
func (o *Orchestrator) Dividends(ctx context.Context, tickers []string) (map[string][]models.DividendEntry, error) {
	out, perr := forEachTicker(ctx, "dividends", tickers, o.provider.Dividends)
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

// InsiderTrades fetches insider transactions for one or more tickers.
func (o *Orchestrator) InsiderTrades(ctx context.Context, tickers []string) (map[string][]models.InsiderTrade, error) {
	out, perr := forEachTicker(ctx, "insider trades", tickers,
		func(ctx context.Context, symbol string) ([]models.InsiderTrade, error) {
			return o.provider.InsiderTransactions(ctx, symbol, o.insider)
		})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

// SharesOutstanding fetches shares-outstanding histories and prices
// each report against the nearest monthly close within the join window,
// deriving undiluted and diluted market caps where a price is found.
func (o *Orchestrator) SharesOutstanding(ctx context.Context, tickers []string) (map[string][]models.SharesOutstandingEntry, error) {
	out, perr := forEachTicker(ctx, "shares outstanding", tickers, o.sharesForTicker)
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

func (o *Orchestrator) sharesForTicker(ctx context.Context, symbol string) ([]models.SharesOutstandingEntry, error) {
	var (
		entries []models.SharesOutstandingEntry
		closes  map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		entries, err = o.provider.SharesOutstanding(gctx, symbol)
		return err
	})
	g.Go(func() (err error) {
		closes, err = o.provider.MonthlyCloses(gctx, symbol)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(closes) > 0 {
		dates := make([]string, 0, len(closes))
		for d := range closes {
			dates = append(dates, d)
		}
		// Map order is random; sorted input makes the nearest-date
		// tie-break (earlier candidate wins) deterministic.
		sort.Strings(dates)
		for i := range entries {
			priceDate, ok := utils.NearestDate(dates, entries[i].Date, priceJoinWindowDays)
			if !ok {
				continue
			}
			price := closes[priceDate]
			if basic, ok := entries[i].Basic.Float(); ok {
				v := basic * price
				entries[i].MarketCapUndiluted = &v
			}
			if diluted, ok := entries[i].Diluted.Float(); ok {
				v := diluted * price
				entries[i].MarketCapDiluted = &v
			}
		}
	}
	return entries, nil
}

// Sentiment fetches the news sentiment feed for one or more tickers,
// keeping only items relevant to the requested symbol.
func (o *Orchestrator) Sentiment(ctx context.Context, tickers []string) (map[string]*models.SentimentFeed, error) {
	out, perr := forEachTicker(ctx, "sentiment", tickers,
		func(ctx context.Context, symbol string) (*models.SentimentFeed, error) {
			feed, err := o.provider.NewsSentiment(ctx, symbol)
			if err != nil {
				return nil, err
			}
			feed.FilterRelevant(o.relevance)
			return feed, nil
		})
	if perr != nil {
		return nil, perr
	}
	return out, nil
}

// WarmCache pre-populates the fundamentals cache for a set of tickers.
// Failures are logged, not fatal.
func (o *Orchestrator) WarmCache(ctx context.Context, tickers []string, perTickerTimeout time.Duration) {
	for _, t := range tickers {
		tctx, cancel := context.WithTimeout(ctx, perTickerTimeout)
		if _, err := o.Fundamentals(tctx, t); err != nil {
			log.Printf("[pipeline] warm %s: %v", t, err)
		}
		cancel()
	}
}
