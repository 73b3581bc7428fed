package alphavantage

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// Statement functions exposed by the fundamentals API.
const (
	FuncBalanceSheet    = "BALANCE_SHEET"
	FuncIncomeStatement = "INCOME_STATEMENT"
	FuncCashFlow        = "CASH_FLOW"
)

// Statements fetches one of the three financial statement endpoints
// for a symbol. A degraded (empty) provider response yields empty
// report slices, never an error.
func (c *Client) Statements(ctx context.Context, function, symbol string) (*models.Fundamentals, error) {
	raw, err := c.FetchJSON(ctx, url.Values{
		"function": {function},
		"symbol":   {symbol},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		AnnualReports    []models.FinancialReport `json:"annualReports"`
		QuarterlyReports []models.FinancialReport `json:"quarterlyReports"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &models.Fundamentals{}, nil
	}
	return &models.Fundamentals{
		Annual:    payload.AnnualReports,
		Quarterly: payload.QuarterlyReports,
	}, nil
}
