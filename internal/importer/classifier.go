// Package importer turns bank CSV exports into categorized transactions.
package importer

import (
	"strings"

	"fintrack/internal/core"
)

// Rule maps description keywords to a category name. Rules are checked
// in order and the first keyword hit wins.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules returns the built-in keyword rules. Transportation is
// checked before Utilities so "gas station" resolves to fuel rather
// than the gas bill.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Food", Keywords: []string{"grocery", "restaurant", "food", "coffee", "cafe"}},
		{Category: "Transportation", Keywords: []string{"gas", "fuel", "uber", "lyft", "parking"}},
		{Category: "Utilities", Keywords: []string{"electric", "water", "gas", "internet", "phone"}},
		{Category: "Entertainment", Keywords: []string{"netflix", "spotify", "movie", "game"}},
	}
}

// Classifier assigns a type and category to raw rows. Positive amounts
// are income, negative ones are expenses.
type Classifier struct {
	rules   []Rule
	byName  map[string]int64
	income  *int64
	expense *int64
}

// NewClassifier builds a classifier over the ledger's category set.
// Income rows fall back to the first income category and unmatched
// expenses to the first expense category, in insertion order; either
// fallback stays nil when no such category exists.
func NewClassifier(rules []Rule, categories []core.Category) *Classifier {
	c := &Classifier{
		rules:  rules,
		byName: make(map[string]int64, len(categories)),
	}
	for _, cat := range categories {
		c.byName[cat.Name] = cat.ID
		id := cat.ID
		if cat.IsIncome {
			if c.income == nil {
				c.income = &id
			}
		} else if c.expense == nil {
			c.expense = &id
		}
	}
	return c
}

// Classify returns the transaction type and category for one row. A rule
// whose category is missing from the ledger is skipped, later rules
// still get a chance to match.
func (c *Classifier) Classify(description string, cents int64) (core.TransactionType, *int64) {
	if cents > 0 {
		return core.Income, c.income
	}

	desc := strings.ToLower(description)
	for _, rule := range c.rules {
		id, ok := c.byName[rule.Category]
		if !ok {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				return core.Expense, &id
			}
		}
	}
	return core.Expense, c.expense
}
