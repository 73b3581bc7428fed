// Package report merges per-statement financial reports into unified
// per-period records and enriches them with derived ratios.
package report

import (
	"sort"

	"github.com/seenimoa/tickerdata/pkg/models"
)

// Merge combines balance sheet, income statement, and cash flow report
// slices into one record per fiscal period, keyed by fiscalDateEnding.
// The result is the union of all dates seen across the three inputs,
// sorted most recent first. On key collision within a period the later
// statement wins, in balance → income → cashflow order. Reports without
// a fiscal date cannot be aligned and are dropped.
func Merge(balance, income, cashflow []models.FinancialReport) []models.FinancialReport {
	byDate := make(map[string]models.FinancialReport)
	for _, series := range [][]models.FinancialReport{balance, income, cashflow} {
		for _, r := range series {
			date := r.FiscalDateEnding()
			if date == "" {
				continue
			}
			merged, ok := byDate[date]
			if !ok {
				merged = make(models.FinancialReport, len(r))
				byDate[date] = merged
			}
			for k, v := range r {
				merged[k] = v
			}
		}
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	out := make([]models.FinancialReport, 0, len(dates))
	for _, d := range dates {
		out = append(out, byDate[d])
	}
	return out
}

// MergeByIndex combines the three report slices positionally: position
// i of the output is the shallow merge of position i of each input, in
// balance → income → cashflow order with later statements winning on
// collision. The output length is the maximum input length; a slice too
// short to cover a position simply contributes nothing there. Useful
// when a provider omits fiscal dates but guarantees same-order arrays.
func MergeByIndex(balance, income, cashflow []models.FinancialReport) []models.FinancialReport {
	n := len(balance)
	if len(income) > n {
		n = len(income)
	}
	if len(cashflow) > n {
		n = len(cashflow)
	}

	out := make([]models.FinancialReport, n)
	for i := 0; i < n; i++ {
		merged := models.FinancialReport{}
		for _, series := range [][]models.FinancialReport{balance, income, cashflow} {
			if i < len(series) {
				for k, v := range series[i] {
					merged[k] = v
				}
			}
		}
		out[i] = merged
	}
	return out
}

// Truncate returns at most limit reports, preserving order. A limit of
// zero or less means no cap.
func Truncate(reports []models.FinancialReport, limit int) []models.FinancialReport {
	if limit > 0 && len(reports) > limit {
		return reports[:limit]
	}
	return reports
}
