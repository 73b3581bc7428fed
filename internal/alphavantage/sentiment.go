package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// NewsSentiment fetches the news sentiment feed for a symbol. The feed
// comes back unfiltered; relevance filtering is the caller's concern.
func (c *Client) NewsSentiment(ctx context.Context, symbol string) (*models.SentimentFeed, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {"NEWS_SENTIMENT"},
		"tickers":  {symbol},
	})
	if err != nil {
		return nil, err
	}

	feed := &models.SentimentFeed{}
	if err := json.Unmarshal(raw, feed); err != nil {
		return &models.SentimentFeed{}, nil
	}
	return feed, nil
}
