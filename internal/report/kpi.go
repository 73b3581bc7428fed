package report

import (
	"github.com/seenimoa/tickerdata/pkg/models"
	"github.com/seenimoa/tickerdata/pkg/safemath"
)

// Enrich appends derived financial ratios to a merged report. All
// original fields are preserved; every derived field is null whenever
// its inputs are missing or non-numeric. Field names on the right-hand
// side are the provider's raw statement field names.
func Enrich(r models.FinancialReport) models.FinancialReport {
	out := r.Clone()

	derived := map[string]*float64{
		"gross_margin":               safemath.Div(r["grossProfit"], r["totalRevenue"]),
		"operating_margin":           safemath.Div(r["operatingIncome"], r["totalRevenue"]),
		"net_profit_margin":          safemath.Div(r["netIncome"], r["totalRevenue"]),
		"ebitda_margin":              safemath.Div(r["ebitda"], r["totalRevenue"]),
		"roa":                        safemath.Div(r["netIncome"], r["totalAssets"]),
		"roe":                        safemath.Div(r["netIncome"], r["totalShareholderEquity"]),
		"roic":                       roic(r),
		"current_ratio":              safemath.Div(r["totalCurrentAssets"], r["totalCurrentLiabilities"]),
		"quick_ratio":                quickRatio(r),
		"cash_ratio":                 safemath.Div(r["cashAndCashEquivalentsAtCarryingValue"], r["totalCurrentLiabilities"]),
		"working_capital":            safemath.Sub(r["totalCurrentAssets"], r["totalCurrentLiabilities"]),
		"inventory_turnover":         safemath.Div(r["costOfRevenue"], r["inventory"]),
		"receivables_turnover":       safemath.Div(r["totalRevenue"], r["currentNetReceivables"]),
		"asset_turnover":             safemath.Div(r["totalRevenue"], r["totalAssets"]),
		"debt_to_equity_ratio":       safemath.Div(r["totalLiabilities"], r["totalShareholderEquity"]),
		"debt_ratio":                 safemath.Div(r["totalLiabilities"], r["totalAssets"]),
		"interest_coverage_ratio":    safemath.Div(r["ebit"], r["interestExpense"]),
		"equity_multiplier":          safemath.Div(r["totalAssets"], r["totalShareholderEquity"]),
		"operating_cash_flow_margin": safemath.Div(r["operatingCashflow"], r["totalRevenue"]),
		"free_cash_flow":             safemath.Sub(r["operatingCashflow"], r["capitalExpenditures"]),
	}
	for name, v := range derived {
		out[name] = models.NumberPtr(v)
	}
	return out
}

// EnrichAll enriches each report in a series.
func EnrichAll(reports []models.FinancialReport) []models.FinancialReport {
	out := make([]models.FinancialReport, len(reports))
	for i, r := range reports {
		out[i] = Enrich(r)
	}
	return out
}

// roic is ebit over invested capital: short-term debt plus long-term
// debt plus shareholder equity, less cash. Cash that is missing or
// unparseable (the provider emits "None" for absent values) counts
// as zero.
func roic(r models.FinancialReport) *float64 {
	totalDebt := safemath.Sum(r["shortTermDebt"], r["longTermDebt"])
	investedCapital := safemath.Sum(totalDebt, r["totalShareholderEquity"])
	if investedCapital == nil {
		return nil
	}

	cash := 0.0
	if parsed, ok := r["cashAndCashEquivalentsAtCarryingValue"].Float(); ok {
		cash = parsed
	}
	return safemath.Div(r["ebit"], *investedCapital-cash)
}

func quickRatio(r models.FinancialReport) *float64 {
	quickAssets := safemath.Sum(
		r["cashAndCashEquivalentsAtCarryingValue"],
		r["shortTermInvestments"],
		r["currentNetReceivables"],
	)
	if quickAssets == nil {
		return nil
	}
	return safemath.Div(*quickAssets, r["totalCurrentLiabilities"])
}
