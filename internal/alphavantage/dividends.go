package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// Dividends fetches the dividend history for a symbol. The dedicated
// DIVIDENDS endpoint is tried first; when it yields nothing (plan tier,
// throttling, sparse coverage) the monthly adjusted time series is used
// as a fallback, which carries a per-month dividend amount.
func (c *Client) Dividends(ctx context.Context, symbol string) ([]models.DividendEntry, error) {
	for _, function := range []string{"DIVIDENDS", "DIVIDEND_HISTORY"} {
		raw, err := c.FetchJSON(ctx, url.Values{
			"function": {function},
			"symbol":   {symbol},
		})
		if err != nil {
			return nil, err
		}
		if entries := parseDividendRecords(raw); len(entries) > 0 {
			return entries, nil
		}
	}
	return c.dividendsFromMonthlyAdjusted(ctx, symbol)
}

// parseDividendRecords extracts dividend rows from a provider payload,
// tolerating both {"data": [...]} envelopes and bare arrays, and the
// snake_case/camelCase field aliases seen across plan tiers.
func parseDividendRecords(raw json.RawMessage) []models.DividendEntry {
	records := extractRecords(raw)
	entries := make([]models.DividendEntry, 0, len(records))
	for _, rec := range records {
		var e models.DividendEntry
		if v, ok := pickFirst(rec, "ex_dividend_date", "exDividendDate", "date"); ok {
			s := rawToString(v)
			e.ExDividendDate = &s
		}
		if v, ok := pickFirst(rec, "amount", "dividend", "adjusted_amount"); ok {
			_ = json.Unmarshal(v, &e.Amount)
		}
		if v, ok := pickFirst(rec, "declaration_date", "declarationDate"); ok {
			s := rawToString(v)
			e.DeclarationDate = &s
		}
		if v, ok := pickFirst(rec, "record_date", "recordDate"); ok {
			s := rawToString(v)
			e.RecordDate = &s
		}
		if v, ok := pickFirst(rec, "payment_date", "paymentDate"); ok {
			s := rawToString(v)
			e.PaymentDate = &s
		}
		if e.ExDividendDate == nil && e.Amount.IsNull() {
			continue
		}
		entries = append(entries, e)
	}
	// Newest first regardless of provider order; undated rows sink to
	// the end so limits keep the most recent payouts.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ExDividendDate == nil || entries[j].ExDividendDate == nil {
			return entries[j].ExDividendDate == nil && entries[i].ExDividendDate != nil
		}
		return *entries[i].ExDividendDate > *entries[j].ExDividendDate
	})
	return entries
}

// dividendsFromMonthlyAdjusted reconstructs a dividend history from the
// "7. dividend amount" field of the monthly adjusted time series,
// keeping only months with a non-zero payout, newest first.
func (c *Client) dividendsFromMonthlyAdjusted(ctx context.Context, symbol string) ([]models.DividendEntry, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {"TIME_SERIES_MONTHLY_ADJUSTED"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Dividend string `json:"7. dividend amount"`
		} `json:"Monthly Adjusted Time Series"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Series) == 0 {
		return nil, nil
	}

	entries := make([]models.DividendEntry, 0, len(payload.Series))
	for date, row := range payload.Series {
		if row.Dividend == "" || row.Dividend == "0" || row.Dividend == "0.0000" {
			continue
		}
		d := date
		entries = append(entries, models.DividendEntry{
			ExDividendDate: &d,
			Amount:         models.Text(row.Dividend),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return *entries[i].ExDividendDate > *entries[j].ExDividendDate
	})
	return entries, nil
}

// extractRecords pulls a slice of JSON objects out of a payload that is
// either a bare array, a {"data": [...]} envelope, or an object whose
// first array-valued field holds the records.
func extractRecords(raw json.RawMessage) []map[string]json.RawMessage {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &records); err == nil {
		return records
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil
	}
	if v, ok := top["data"]; ok {
		if err := json.Unmarshal(v, &records); err == nil {
			return records
		}
	}
	for _, v := range top {
		if err := json.Unmarshal(v, &records); err == nil && len(records) > 0 {
			return records
		}
	}
	return nil
}
