package core

// DefaultCategories is the fixed set seeded into an empty store at
// initialization. Order matters: the importer falls back to the first
// income / first expense category when no keyword rule matches.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Income", Icon: "💵", IsIncome: true},
		{Name: "Rent", Icon: "🏠"},
		{Name: "Utilities", Icon: "⚡"},
		{Name: "Food", Icon: "🍔"},
		{Name: "Transportation", Icon: "🚗"},
		{Name: "Insurance", Icon: "🛡️"},
		{Name: "Phone", Icon: "📱"},
		{Name: "Entertainment", Icon: "🎬"},
		{Name: "Healthcare", Icon: "🏥"},
		{Name: "Savings", Icon: "🏦"},
		{Name: "Other", Icon: "📦"},
	}
}
