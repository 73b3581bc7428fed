package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// InsiderTransactions fetches and normalizes insider transactions for a
// symbol. The trade value is shares × price when both sides parse as
// numbers, null otherwise.
func (c *Client) InsiderTransactions(ctx context.Context, symbol string, limit int) ([]models.InsiderTrade, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {"INSIDER_TRANSACTIONS"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	records := extractRecords(raw)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	trades := make([]models.InsiderTrade, 0, len(records))
	for _, rec := range records {
		t := models.InsiderTrade{Ticker: symbol}
		if v, ok := pickFirst(rec, "transaction_date", "transactionDate", "date"); ok {
			t.TransactionDate = rawToString(v)
		}
		if v, ok := pickFirst(rec, "executive", "reportingName", "insider"); ok {
			t.Executive = rawToString(v)
		}
		if v, ok := pickFirst(rec, "executive_title", "executiveTitle", "title"); ok {
			t.ExecutiveTitle = rawToString(v)
		}
		if v, ok := pickFirst(rec, "security_type", "securityType"); ok {
			t.SecurityType = rawToString(v)
		}
		if v, ok := pickFirst(rec, "acquisition_or_disposal", "acquisitionOrDisposal", "transaction_type"); ok {
			t.AcquisitionOrDisposal = rawToString(v)
		}
		if v, ok := pickFirst(rec, "shares", "share", "amount"); ok {
			_ = json.Unmarshal(v, &t.Shares)
		}
		if v, ok := pickFirst(rec, "share_price", "sharePrice", "price"); ok {
			_ = json.Unmarshal(v, &t.SharePrice)
		}
		if shares, ok := t.Shares.Float(); ok {
			if price, ok := t.SharePrice.Float(); ok {
				total := shares * price
				t.TotalValue = &total
			}
		}
		trades = append(trades, t)
	}
	return trades, nil
}
