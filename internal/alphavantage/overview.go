package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// Overview fetches the company overview endpoint and extracts the
// market capitalization fields, keeping the raw payload for callers
// that want the full document.
func (c *Client) Overview(ctx context.Context, symbol string) (*models.MarketCap, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {"OVERVIEW"},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return &models.MarketCap{Raw: raw}, nil
	}

	mc := &models.MarketCap{Raw: raw}
	if v, ok := pickFirst(top, "MarketCapitalization"); ok {
		mc.MarketCap = rawToString(v)
	}
	if v, ok := pickFirst(top, "Currency"); ok {
		mc.Currency = rawToString(v)
	}
	return mc, nil
}
