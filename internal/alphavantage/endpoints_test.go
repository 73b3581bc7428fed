package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeProvider routes requests by the Alpha Vantage function parameter.
func fakeProvider(t *testing.T, responses map[string]string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn := r.URL.Query().Get("function")
		body, ok := responses[fn]
		if !ok {
			w.Write([]byte(`{"Error Message":"unknown function ` + fn + `"}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, APIKey: "k", Backoff: time.Millisecond})
}

func TestStatements(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"BALANCE_SHEET": `{
			"symbol": "AAPL",
			"annualReports": [
				{"fiscalDateEnding":"2024-09-30","totalAssets":"364980000000","cash":null},
				{"fiscalDateEnding":"2023-09-30","totalAssets":"352583000000"}
			],
			"quarterlyReports": [
				{"fiscalDateEnding":"2025-06-30","totalAssets":"331522000000"}
			]
		}`,
	})

	f, err := c.Statements(context.Background(), FuncBalanceSheet, "AAPL")
	if err != nil {
		t.Fatalf("Statements: %v", err)
	}
	if len(f.Annual) != 2 || len(f.Quarterly) != 1 {
		t.Fatalf("got %d annual, %d quarterly reports", len(f.Annual), len(f.Quarterly))
	}
	if d := f.Annual[0].FiscalDateEnding(); d != "2024-09-30" {
		t.Errorf("fiscalDateEnding = %q", d)
	}
	if v, ok := f.Annual[0]["totalAssets"].Float(); !ok || v != 364980000000 {
		t.Errorf("totalAssets = %v, %v", v, ok)
	}
	if !f.Annual[0]["cash"].IsNull() {
		t.Error("cash should be null")
	}
}

func TestStatementsDegraded(t *testing.T) {
	c := fakeProvider(t, map[string]string{})

	f, err := c.Statements(context.Background(), FuncIncomeStatement, "AAPL")
	if err != nil {
		t.Fatalf("Statements: %v", err)
	}
	if len(f.Annual) != 0 || len(f.Quarterly) != 0 {
		t.Errorf("degraded response should yield empty reports, got %+v", f)
	}
}

func TestOverview(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"OVERVIEW": `{"Symbol":"AAPL","MarketCapitalization":"3000000000000","Currency":"USD"}`,
	})

	mc, err := c.Overview(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if mc.MarketCap != "3000000000000" {
		t.Errorf("MarketCap = %q", mc.MarketCap)
	}
	if mc.Currency != "USD" {
		t.Errorf("Currency = %q", mc.Currency)
	}
	if len(mc.Raw) == 0 {
		t.Error("Raw payload should be preserved")
	}
}

func TestDividends(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"DIVIDENDS": `{"symbol":"AAPL","data":[
			{"ex_dividend_date":"2025-05-12","amount":"0.26","declaration_date":"2025-05-01","record_date":"2025-05-12","payment_date":"2025-05-15"},
			{"ex_dividend_date":"2025-02-10","amount":"0.25"}
		]}`,
	})

	entries, err := c.Dividends(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Dividends: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if *entries[0].ExDividendDate != "2025-05-12" {
		t.Errorf("ex date = %q", *entries[0].ExDividendDate)
	}
	if v, ok := entries[0].Amount.Float(); !ok || v != 0.26 {
		t.Errorf("amount = %v, %v", v, ok)
	}
	if entries[1].PaymentDate != nil {
		t.Error("missing payment date should stay nil")
	}
}

func TestDividendsSortsNewestFirst(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"DIVIDENDS": `{"symbol":"AAPL","data":[
			{"ex_dividend_date":"2024-11-08","amount":"0.25"},
			{"ex_dividend_date":"2025-05-12","amount":"0.26"},
			{"ex_dividend_date":"2025-02-10","amount":"0.25"}
		]}`,
	})

	entries, err := c.Dividends(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Dividends: %v", err)
	}
	want := []string{"2025-05-12", "2025-02-10", "2024-11-08"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(entries), len(want))
	}
	for i, d := range want {
		if *entries[i].ExDividendDate != d {
			t.Errorf("entry %d ex date = %q, want %q", i, *entries[i].ExDividendDate, d)
		}
	}
}

func TestDividendsMonthlyAdjustedFallback(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"DIVIDENDS":        `{"data":[]}`,
		"DIVIDEND_HISTORY": `{}`,
		"TIME_SERIES_MONTHLY_ADJUSTED": `{"Monthly Adjusted Time Series":{
			"2025-05-30":{"4. close":"200.85","7. dividend amount":"0.2600"},
			"2025-04-30":{"4. close":"212.50","7. dividend amount":"0.0000"},
			"2025-02-28":{"4. close":"241.84","7. dividend amount":"0.2500"}
		}}`,
	})

	entries, err := c.Dividends(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Dividends: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (zero payouts dropped)", len(entries))
	}
	if *entries[0].ExDividendDate != "2025-05-30" || *entries[1].ExDividendDate != "2025-02-28" {
		t.Errorf("entries not sorted newest first: %v, %v",
			*entries[0].ExDividendDate, *entries[1].ExDividendDate)
	}
}

func TestInsiderTransactions(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"INSIDER_TRANSACTIONS": `{"data":[
			{"transaction_date":"2025-08-01","executive":"COOK TIMOTHY D","executive_title":"CEO","security_type":"Common Stock","acquisition_or_disposal":"D","shares":"100000","share_price":"225.50"},
			{"transaction_date":"2025-07-15","executive":"DOE JANE","shares":"5000","share_price":""}
		]}`,
	})

	trades, err := c.InsiderTransactions(context.Background(), "AAPL", 0)
	if err != nil {
		t.Fatalf("InsiderTransactions: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	if trades[0].Ticker != "AAPL" {
		t.Errorf("ticker = %q", trades[0].Ticker)
	}
	if trades[0].TotalValue == nil || *trades[0].TotalValue != 100000*225.50 {
		t.Errorf("total value = %v, want %v", trades[0].TotalValue, 100000*225.50)
	}
	if trades[1].TotalValue != nil {
		t.Error("non-numeric price should leave total value nil")
	}
}

func TestInsiderTransactionsLimit(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"INSIDER_TRANSACTIONS": `{"data":[
			{"transaction_date":"2025-08-01","shares":"1","share_price":"1"},
			{"transaction_date":"2025-07-01","shares":"2","share_price":"2"},
			{"transaction_date":"2025-06-01","shares":"3","share_price":"3"}
		]}`,
	})

	trades, err := c.InsiderTransactions(context.Background(), "AAPL", 2)
	if err != nil {
		t.Fatalf("InsiderTransactions: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("got %d trades, want 2", len(trades))
	}
}

func TestSharesOutstanding(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"SHARES_OUTSTANDING": `{"data":[
			{"date":"2025-06-30","shares_outstanding_basic":"15000000000","shares_outstanding_diluted":"15100000000"},
			{"date":"2025-03-31","shares_outstanding_basic":"15200000000"}
		]}`,
	})

	entries, err := c.SharesOutstanding(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("SharesOutstanding: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Date != "2025-06-30" {
		t.Errorf("date = %q", entries[0].Date)
	}
	if v, ok := entries[0].Diluted.Float(); !ok || v != 15100000000 {
		t.Errorf("diluted = %v, %v", v, ok)
	}
	if entries[0].MarketCapUndiluted != nil {
		t.Error("market cap should be nil before enrichment")
	}
}

func TestMonthlyCloses(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"TIME_SERIES_MONTHLY": `{"Monthly Time Series":{
			"2025-06-30":{"1. open":"200.00","4. close":"205.17"},
			"2025-05-30":{"1. open":"210.00","4. close":"200.85"}
		}}`,
	})

	closes, err := c.MonthlyCloses(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("MonthlyCloses: %v", err)
	}
	if len(closes) != 2 {
		t.Fatalf("got %d closes, want 2", len(closes))
	}
	if closes["2025-06-30"] != 205.17 {
		t.Errorf("close = %v", closes["2025-06-30"])
	}
}

func TestNewsSentiment(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"NEWS_SENTIMENT": `{"items":"3","feed":[
			{"title":"a","ticker_sentiment":[{"ticker":"AAPL","relevance_score":"0.9"}]},
			{"title":"b","ticker_sentiment":[{"ticker":"AAPL","relevance_score":"0.05"}]},
			{"title":"c","topics":[{"topic":"Technology","relevance_score":"0.5"}]}
		]}`,
	})

	feed, err := c.NewsSentiment(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("NewsSentiment: %v", err)
	}
	if len(feed.Feed) != 3 {
		t.Fatalf("got %d feed items, want 3", len(feed.Feed))
	}
	feed.FilterRelevant(0.2)
	if len(feed.Feed) != 2 {
		t.Errorf("filtered to %d items, want 2", len(feed.Feed))
	}
}

func TestSymbolSearch(t *testing.T) {
	c := fakeProvider(t, map[string]string{
		"SYMBOL_SEARCH": `{"bestMatches":[{"1. symbol":"AAPL","2. name":"Apple Inc"}]}`,
	})

	raw, err := c.SymbolSearch(context.Background(), "apple")
	if err != nil {
		t.Fatalf("SymbolSearch: %v", err)
	}
	if string(raw) == "{}" {
		t.Fatal("expected passthrough payload")
	}
}
