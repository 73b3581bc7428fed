package models

import (
	"encoding/json"
	"strconv"
)

// RelevanceTag is the relevance_score carrier used by both the topic
// tags and the ticker-sentiment tags of a news feed item.
type RelevanceTag struct {
	RelevanceScore string `json:"relevance_score"`
}

// Score parses the relevance score, false when non-numeric.
func (t RelevanceTag) Score() (float64, bool) {
	f, err := strconv.ParseFloat(t.RelevanceScore, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FeedItem is one news article in the provider's sentiment feed. Only
// the relevance tags are parsed; the raw item is kept verbatim so the
// feed passes through unmodified apart from filtering.
type FeedItem struct {
	Topics          []RelevanceTag `json:"topics"`
	TickerSentiment []RelevanceTag `json:"ticker_sentiment"`

	raw json.RawMessage
}

// UnmarshalJSON parses the relevance tags and retains the raw item.
func (it *FeedItem) UnmarshalJSON(b []byte) error {
	type alias FeedItem
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*it = FeedItem(a)
	it.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON emits the original provider item.
func (it FeedItem) MarshalJSON() ([]byte, error) {
	if len(it.raw) == 0 {
		return []byte("{}"), nil
	}
	return it.raw, nil
}

// Relevant reports whether any topic or ticker-sentiment tag exceeds
// the given relevance threshold.
func (it FeedItem) Relevant(threshold float64) bool {
	for _, t := range it.Topics {
		if s, ok := t.Score(); ok && s > threshold {
			return true
		}
	}
	for _, t := range it.TickerSentiment {
		if s, ok := t.Score(); ok && s > threshold {
			return true
		}
	}
	return false
}

// SentimentFeed is the provider's news sentiment payload. Top-level
// fields other than the feed itself (score definitions, item counts)
// are preserved untouched in Extra.
type SentimentFeed struct {
	Feed  []FeedItem
	Extra map[string]json.RawMessage
}

// UnmarshalJSON splits the feed array from the remaining top-level keys.
func (sf *SentimentFeed) UnmarshalJSON(b []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(b, &top); err != nil {
		return err
	}
	sf.Extra = top
	if raw, ok := top["feed"]; ok {
		if err := json.Unmarshal(raw, &sf.Feed); err != nil {
			return err
		}
		delete(sf.Extra, "feed")
	}
	return nil
}

// MarshalJSON reassembles the payload with the (possibly filtered) feed.
func (sf SentimentFeed) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(sf.Extra)+1)
	for k, v := range sf.Extra {
		out[k] = v
	}
	out["feed"] = sf.Feed
	return json.Marshal(out)
}

// FilterRelevant drops feed items whose relevance never exceeds the
// threshold. The rest of the payload is untouched.
func (sf *SentimentFeed) FilterRelevant(threshold float64) {
	kept := sf.Feed[:0]
	for _, it := range sf.Feed {
		if it.Relevant(threshold) {
			kept = append(kept, it)
		}
	}
	sf.Feed = kept
}
