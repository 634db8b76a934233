package domain

import "time"

// Granularities for cash-flow bucketing.
const (
	GranularityDay   = "day"
	GranularityWeek  = "week" // ISO weeks, Monday start
	GranularityMonth = "month"
)

// CashFlowBucket is one period of the income/expense series. Period is the
// bucket's floor timestamp (start of day, week or month).
type CashFlowBucket struct {
	Period  time.Time `json:"period"`
	Income  float64   `json:"income"`
	Expense float64   `json:"expense"`
	Net     float64   `json:"net"`
}

// CashFlowSummary is the "flujo por rubros" result: operating totals,
// EBITDA/EBIT derived from category-grouped sums, and the financing and
// capex deltas that make up the final net flow.
type CashFlowSummary struct {
	TotalIncome      float64 `json:"total_income"`
	TotalExpense     float64 `json:"total_expense"`
	OperatingIncome  float64 `json:"operating_income"`
	OperatingExpense float64 `json:"operating_expense"`
	Depreciation     float64 `json:"depreciation"`
	EBITDA           float64 `json:"ebitda"`
	EBIT             float64 `json:"ebit"`
	FinancingTotal   float64 `json:"financing_total"` // +income / -expense over financing categories
	CapexTotal       float64 `json:"capex_total"`     // expense-only over capex categories
	NetFlow          float64 `json:"net_flow"`
}
