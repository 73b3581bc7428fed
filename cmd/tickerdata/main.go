// tickerdata — per-ticker financial data service.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seenimoa/tickerdata/api"
	"github.com/seenimoa/tickerdata/internal/alphavantage"
	"github.com/seenimoa/tickerdata/internal/config"
	"github.com/seenimoa/tickerdata/internal/infra"
	"github.com/seenimoa/tickerdata/internal/pipeline"
	"github.com/seenimoa/tickerdata/internal/procfetch"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	// Local development convention: provider keys live in .env.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tickerdata",
	Short: "tickerdata — per-ticker financial data service",
	Long: `tickerdata fetches, merges, and enriches per-security financial data:
statement fundamentals with derived KPI ratios, dividends, shares
outstanding, insider trades, news sentiment, and market capitalization.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)

	serveCmd.Flags().StringSlice("warm", nil, "tickers to pre-warm the fundamentals cache with before serving")
}

// newOrchestrator wires the pipeline from the loaded config.
func newOrchestrator() *pipeline.Orchestrator {
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
	return pipeline.New(pipeline.Options{
		Provider:       client,
		Runner:         runner,
		Cache:          infra.NewCache(cfg.Pipeline.CacheTTL()),
		AnnualLimit:    cfg.Pipeline.AnnualLimit,
		QuarterlyLimit: cfg.Pipeline.QuarterlyLimit,
	})
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tickerdata %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := api.NewServer(cfg)
		warm, _ := cmd.Flags().GetStringSlice("warm")
		if len(warm) > 0 {
			fmt.Printf("Warming fundamentals cache for %d tickers\n", len(warm))
			srv.WarmCache(cmd.Context(), warm, cfg.Fetcher.Timeout())
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting tickerdata API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Fetch Command (one-shot) ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker...]",
	Short: "Fetch data for one or more tickers and print JSON to stdout",
	Long: `Fetch data for one or more tickers and print the result as JSON.

Examples:
  tickerdata fetch AAPL
  tickerdata fetch --resource dividends AAPL MSFT
  tickerdata fetch --resource marketcap AAPL
  tickerdata fetch --script AAPL`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resource, _ := cmd.Flags().GetString("resource")
		script, _ := cmd.Flags().GetBool("script")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		orch := newOrchestrator()
		result, err := fetchResource(ctx, orch, resource, script, args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func fetchResource(ctx context.Context, orch *pipeline.Orchestrator, resource string, script bool, tickers []string) (any, error) {
	if script {
		out := make(map[string]json.RawMessage, len(tickers))
		for _, t := range tickers {
			raw, err := orch.FundamentalsFromScript(ctx, t)
			if err != nil {
				return nil, err
			}
			out[t] = raw
		}
		return out, nil
	}

	switch resource {
	case "fundamentals":
		out := make(map[string]any, len(tickers))
		for _, t := range tickers {
			f, err := orch.Fundamentals(ctx, t)
			if err != nil {
				return nil, err
			}
			out[t] = f
		}
		return out, nil
	case "dividends":
		return orch.Dividends(ctx, tickers)
	case "shares":
		return orch.SharesOutstanding(ctx, tickers)
	case "insider":
		return orch.InsiderTrades(ctx, tickers)
	case "sentiment":
		return orch.Sentiment(ctx, tickers)
	case "marketcap":
		out := make(map[string]any, len(tickers))
		for _, t := range tickers {
			mc, err := orch.MarketCap(ctx, t)
			if err != nil {
				return nil, err
			}
			out[t] = mc
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown resource %q (fundamentals, dividends, shares, insider, sentiment, marketcap)", resource)
	}
}

func init() {
	fetchCmd.Flags().String("resource", "fundamentals", "resource to fetch: fundamentals, dividends, shares, insider, sentiment, marketcap")
	fetchCmd.Flags().Bool("script", false, "fetch fundamentals via the external script fetcher")
	fetchCmd.Flags().Duration("timeout", 2*time.Minute, "overall fetch timeout")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  tickerdata — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Provider:     %s\n", cfg.Provider.BaseURL)
		fmt.Printf("    Rate limit:   %d req / %s\n", cfg.Provider.RateLimit, cfg.Provider.RateWindow())
		fmt.Printf("    Fetcher:      %s (fallback %s), timeout %s\n",
			cfg.Fetcher.Interpreter, cfg.Fetcher.FallbackInterpreter, cfg.Fetcher.Timeout())
		fmt.Printf("    Periods:      %d annual / %d quarterly\n",
			cfg.Pipeline.AnnualLimit, cfg.Pipeline.QuarterlyLimit)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
