package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"
)

// SymbolSearch runs a symbol/keyword search and returns the provider
// payload verbatim ({"bestMatches": [...]}).
func (c *Client) SymbolSearch(ctx context.Context, keywords string) (json.RawMessage, error) {
	return c.FetchJSON(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {keywords},
	})
}
