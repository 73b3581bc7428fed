package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// SharesOutstanding fetches the shares-outstanding history for a
// symbol. Market cap enrichment (joining against closing prices) is the
// caller's concern; entries come back with nil market caps.
func (c *Client) SharesOutstanding(ctx context.Context, symbol string) ([]models.SharesOutstandingEntry, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {"SHARES_OUTSTANDING"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	records := extractRecords(raw)
	entries := make([]models.SharesOutstandingEntry, 0, len(records))
	for _, rec := range records {
		var e models.SharesOutstandingEntry
		if v, ok := pickFirst(rec, "date", "report_date", "fiscalDateEnding"); ok {
			e.Date = rawToString(v)
		}
		if v, ok := pickFirst(rec, "shares_outstanding_basic", "common_shares_outstanding", "sharesOutstanding"); ok {
			_ = json.Unmarshal(v, &e.Basic)
		}
		if v, ok := pickFirst(rec, "shares_outstanding_diluted", "diluted_shares_outstanding"); ok {
			_ = json.Unmarshal(v, &e.Diluted)
		}
		if e.Date == "" && e.Basic.IsNull() && e.Diluted.IsNull() {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MonthlyCloses fetches the monthly time series and returns a map of
// date (YYYY-MM-DD) to closing price.
func (c *Client) MonthlyCloses(ctx context.Context, symbol string) (map[string]float64, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {"TIME_SERIES_MONTHLY"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Close string `json:"4. close"`
		} `json:"Monthly Time Series"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil
	}

	closes := make(map[string]float64, len(payload.Series))
	for date, row := range payload.Series {
		if f, err := strconv.ParseFloat(row.Close, 64); err == nil {
			closes[date] = f
		}
	}
	return closes, nil
}
