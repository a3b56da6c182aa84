// Package analytics aggregates card spending by category and renders the
// dashboard pie chart.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/onecard-labs/cardassist/internal/account"
)

// CategoryTotal is the spend accumulated for one category.
type CategoryTotal struct {
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

// Report summarizes a month of spending for the analytics overlay.
type Report struct {
	Totals     []CategoryTotal `json:"totals"`
	TotalSpend int64           `json:"total_spend"`
	Insight    string          `json:"insight"`
}

var merchantCategories = map[string][]string{
	"Food":     {"swiggy", "zomato", "kfc", "dominos"},
	"Shopping": {"amazon", "flipkart", "myntra", "ajio"},
	"Travel":   {"uber", "ola", "rapido"},
	"Fuel":     {"hp", "shell", "petrol", "bp", "fuel"},
}

// Categorize maps a merchant name to a spending category.
func Categorize(merchant string) string {
	merchant = strings.ToLower(merchant)
	for category, needles := range merchantCategories {
		for _, needle := range needles {
			if strings.Contains(merchant, needle) {
				return category
			}
		}
	}
	return "Others"
}

// Build aggregates the account's transactions into a Report. Totals are
// sorted by amount descending so the first entry is the top category.
func Build(acct *account.Account) *Report {
	byCategory := make(map[string]int64)
	var total int64

	for _, t := range acct.Transactions {
		category := t.Category
		if category == "" {
			category = Categorize(t.Merchant)
		}
		byCategory[category] += t.Amount
		total += t.Amount
	}

	totals := make([]CategoryTotal, 0, len(byCategory))
	for category, amount := range byCategory {
		totals = append(totals, CategoryTotal{Category: category, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount != totals[j].Amount {
			return totals[i].Amount > totals[j].Amount
		}
		return totals[i].Category < totals[j].Category
	})

	report := &Report{
		Totals:     totals,
		TotalSpend: total,
	}
	if len(totals) > 0 {
		report.Insight = fmt.Sprintf("⚠ You are spending the most on %s. Consider reducing your spending next month.", totals[0].Category)
	}

	return report
}
