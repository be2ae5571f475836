// Package summary aggregates movement amounts for reporting: balances per
// dimension member and the yearly income/expense dashboard.
package summary

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/records"
	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

// Cash-flow types of a category (tipo_flujo).
const (
	FlowIncome    = "Ingreso"
	FlowExpense   = "Gasto"
	FlowFinancial = "Operación financiera"
)

// ColFlowType is the cash-flow column of the categories dataset.
const ColFlowType = "tipo_flujo"

// topCategoriesLimit is the number of categories listed in a dashboard.
const topCategoriesLimit = 5

// Balance is the summed amount of the movements attached to one member of a dimension.
type Balance struct {
	ID      string          `json:"id"`
	Name    string          `json:"nombre"`
	Balance decimal.Decimal `json:"saldo"`
	Percent decimal.Decimal `json:"porcentaje"`
}

// BalanceReport lists the balances of a dimension and their grand total.
type BalanceReport struct {
	Dimension string          `json:"dimension"`
	Balances  []Balance       `json:"saldos"`
	Total     decimal.Decimal `json:"total"`
}

// Balances sums the amount of movements per member of dimension. Movements
// referencing an id that is not in dim are left out. Balances are sorted
// from highest to lowest; Percent is each balance's share of the total,
// rounded to one decimal.
func Balances(dimension string, movements, dim *table.Table) BalanceReport {
	idCol := records.Singular(dimension) + "_id"
	nameCol := records.NameColumn(dimension)

	names := make(map[string]string)
	for _, row := range dim.Rows {
		id := row[idCol].Text()
		if id == "" {
			continue
		}
		if _, seen := names[id]; !seen {
			names[id] = row[nameCol].Text()
		}
	}

	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, row := range movements.Rows {
		id := row[idCol].Text()
		if _, ok := names[id]; !ok {
			continue
		}
		amount := Amount(row[records.ColAmount])
		sums[id] = sums[id].Add(amount)
		total = total.Add(amount)
	}

	report := BalanceReport{Dimension: dimension, Balances: make([]Balance, 0, len(sums)), Total: total}
	for id, sum := range sums {
		pct := decimal.Zero
		if !total.IsZero() {
			pct = sum.Div(total).Mul(decimal.NewFromInt(100)).Round(1)
		}
		report.Balances = append(report.Balances, Balance{ID: id, Name: names[id], Balance: sum, Percent: pct})
	}
	slices.SortFunc(report.Balances, func(a, b Balance) int {
		if c := b.Balance.Cmp(a.Balance); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return report
}

// MonthTotals holds the income and expenses of one month.
type MonthTotals struct {
	Month    int             `json:"mes"`
	Income   decimal.Decimal `json:"ingresos"`
	Expenses decimal.Decimal `json:"gastos"`
}

// CategoryTotal is the signed total of one category in a dashboard.
type CategoryTotal struct {
	ID    string          `json:"categoria_id"`
	Name  string          `json:"nombre"`
	Total decimal.Decimal `json:"total"`
}

// DashboardReport is the yearly overview.
type DashboardReport struct {
	Year          int             `json:"anio"`
	Income        decimal.Decimal `json:"ingresos"`
	Expenses      decimal.Decimal `json:"gastos"`
	Balance       decimal.Decimal `json:"saldo"`
	Months        []MonthTotals   `json:"meses"`
	TopCategories []CategoryTotal `json:"top_categorias"`
}

// Dashboard summarizes the movements dated in year. Income is the sum of
// absolute amounts of movements whose category flows as income; expenses
// are the negated sum for expense and financial-operation categories.
// Movements without a known category or with a malformed date are left out.
func Dashboard(year int, movements, categories *table.Table) DashboardReport {
	type category struct {
		name string
		flow string
	}
	idCol := records.KeyColumn(catalog.Categories, categories.Columns)
	cats := make(map[string]category)
	for _, row := range categories.Rows {
		id := row[idCol].Text()
		if _, seen := cats[id]; id != "" && !seen {
			cats[id] = category{name: row[records.NameColumn(catalog.Categories)].Text(), flow: row[ColFlowType].Text()}
		}
	}

	report := DashboardReport{
		Year:     year,
		Income:   decimal.Zero,
		Expenses: decimal.Zero,
		Months:   make([]MonthTotals, 12),
	}
	for i := range report.Months {
		report.Months[i] = MonthTotals{Month: i + 1, Income: decimal.Zero, Expenses: decimal.Zero}
	}

	byCategory := make(map[string]decimal.Decimal)
	for _, row := range movements.Rows {
		date, err := time.Parse("2006-01-02", row[records.ColDate].Text())
		if err != nil || date.Year() != year {
			continue
		}
		catID := row[records.ColCategoryID].Text()
		cat, ok := cats[catID]
		if !ok {
			continue
		}

		amount := Amount(row[records.ColAmount]).Abs()
		month := &report.Months[date.Month()-1]
		switch cat.flow {
		case FlowIncome:
			report.Income = report.Income.Add(amount)
			month.Income = month.Income.Add(amount)
			byCategory[catID] = byCategory[catID].Add(amount)
		case FlowExpense, FlowFinancial:
			report.Expenses = report.Expenses.Sub(amount)
			month.Expenses = month.Expenses.Sub(amount)
			byCategory[catID] = byCategory[catID].Sub(amount)
		}
	}
	report.Balance = report.Income.Add(report.Expenses)

	report.TopCategories = make([]CategoryTotal, 0, len(byCategory))
	for id, total := range byCategory {
		report.TopCategories = append(report.TopCategories, CategoryTotal{ID: id, Name: cats[id].name, Total: total})
	}
	slices.SortFunc(report.TopCategories, func(a, b CategoryTotal) int {
		return cmp.Or(b.Total.Abs().Cmp(a.Total.Abs()), strings.Compare(a.ID, b.ID))
	})
	if len(report.TopCategories) > topCategoriesLimit {
		report.TopCategories = report.TopCategories[:topCategoriesLimit]
	}

	return report
}

// Amount reads a movement amount. Values that are not numbers count as zero.
func Amount(v table.Value) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(v.Text()))
	if err != nil {
		return decimal.Zero
	}
	return d
}
