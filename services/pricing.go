// Package services provides pricing, formatting, data access and document
// generation for RAB budgets and final opname reports.
package services

import "github.com/shopspring/decimal"

// PPNRate is the Indonesian VAT rate applied to every report total.
var PPNRate = decimal.RequireFromString("0.11")

// BudgetItem is one RAB line as read from the budget sheet.
type BudgetItem struct {
	CategoryHint      string
	Description       string
	Unit              string
	Volume            decimal.Decimal
	UnitPriceMaterial decimal.Decimal
	UnitPriceLabor    decimal.Decimal
}

func (b BudgetItem) MaterialSubtotal() decimal.Decimal {
	return b.Volume.Mul(b.UnitPriceMaterial)
}

func (b BudgetItem) LaborSubtotal() decimal.Decimal {
	return b.Volume.Mul(b.UnitPriceLabor)
}

func (b BudgetItem) LineTotal() decimal.Decimal {
	return b.MaterialSubtotal().Add(b.LaborSubtotal())
}

// CategoryGroup holds the budget lines of one category in input order.
type CategoryGroup struct {
	Category Category
	Items    []BudgetItem
	Subtotal decimal.Decimal
}

// Totals is the TOTAL / PPN 11% / GRAND TOTAL summary block.
type Totals struct {
	Total      decimal.Decimal
	PPN        decimal.Decimal
	GrandTotal decimal.Decimal
}

// BudgetSummary is the categorized RAB with its totals.
type BudgetSummary struct {
	Groups []CategoryGroup
	Totals Totals
}

// GroupBudgetItems partitions items by category in the fixed category order.
// Empty categories are skipped.
func GroupBudgetItems(items []BudgetItem) []CategoryGroup {
	buckets := make(map[Category][]BudgetItem)
	for _, item := range items {
		c := ClassifyItem(item)
		buckets[c] = append(buckets[c], item)
	}

	var groups []CategoryGroup
	for _, c := range Categories() {
		list := buckets[c]
		if len(list) == 0 {
			continue
		}
		subtotal := decimal.Zero
		for _, item := range list {
			subtotal = subtotal.Add(item.LineTotal())
		}
		groups = append(groups, CategoryGroup{Category: c, Items: list, Subtotal: subtotal})
	}
	return groups
}

// CalcTaxTotals applies PPN to a total.
func CalcTaxTotals(total decimal.Decimal) Totals {
	ppn := total.Mul(PPNRate)
	return Totals{
		Total:      total,
		PPN:        ppn,
		GrandTotal: total.Add(ppn),
	}
}

// SummarizeBudget groups items and sums category subtotals into the totals.
func SummarizeBudget(items []BudgetItem) BudgetSummary {
	groups := GroupBudgetItems(items)
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Subtotal)
	}
	return BudgetSummary{Groups: groups, Totals: CalcTaxTotals(total)}
}

// SummarizeOpname totals the final prices of approved submissions.
func SummarizeOpname(submissions []ApprovedSubmission) Totals {
	total := decimal.Zero
	for _, s := range submissions {
		total = total.Add(s.FinalTotalPrice)
	}
	return CalcTaxTotals(total)
}
