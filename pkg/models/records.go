package models

import "encoding/json"

// DividendEntry is one normalized dividend payment.
type DividendEntry struct {
	ExDividendDate  *string    `json:"ex_dividend_date"`
	Amount          FieldValue `json:"amount"`
	DeclarationDate *string    `json:"declaration_date"`
	RecordDate      *string    `json:"record_date"`
	PaymentDate     *string    `json:"payment_date"`
}

// InsiderTrade is one normalized insider transaction. TotalValue is
// shares × price, null when either side is non-numeric.
type InsiderTrade struct {
	TransactionDate       string     `json:"transaction_date,omitempty"`
	Executive             string     `json:"executive,omitempty"`
	ExecutiveTitle        string     `json:"executive_title,omitempty"`
	SecurityType          string     `json:"security_type,omitempty"`
	AcquisitionOrDisposal string     `json:"acquisition_or_disposal,omitempty"`
	Shares                FieldValue `json:"shares"`
	SharePrice            FieldValue `json:"share_price"`
	TotalValue            *float64   `json:"total_value"`
	Ticker                string     `json:"ticker"`
}

// SharesOutstandingEntry is one shares-outstanding observation, with
// market caps derived from the nearest monthly close when available.
type SharesOutstandingEntry struct {
	Date               string     `json:"date"`
	Basic              FieldValue `json:"shares_outstanding_basic"`
	Diluted            FieldValue `json:"shares_outstanding_diluted"`
	MarketCapUndiluted *float64   `json:"market_cap_undiluted"`
	MarketCapDiluted   *float64   `json:"market_cap_diluted"`
}

// MarketCap is the company-overview market cap lookup result. Raw keeps
// the full provider payload for callers that want more than the headline
// numbers.
type MarketCap struct {
	MarketCap string          `json:"marketCap"`
	Currency  string          `json:"currency"`
	Raw       json.RawMessage `json:"raw"`
}
