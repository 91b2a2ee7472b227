// Package categorization assigns a category, merchant label and confidence
// to each normalized transaction. The deterministic rule engine is always
// available; an optional external classifier runs first and falls back to
// the rules on any failure.
package categorization

// Canonical category vocabulary. Every path through the categorizer,
// including the external classifier, resolves to one of these.
const (
	CategoryGroceries     = "Groceries"
	CategoryFoodDrink     = "Food & Drink"
	CategoryTransport     = "Transport"
	CategoryUtilities     = "Utilities"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryHealth        = "Health"
	CategoryHousing       = "Housing"
	CategoryFinance       = "Finance"
	CategorySubscriptions = "Subscriptions"
	CategorySalary        = "Salary"
	CategoryRefund        = "Refund"
	CategoryInterest      = "Interest"
	CategoryTransfer      = "Transfer"
	CategoryUncategorised = "Uncategorised"
)

// Confidence tiers for the rule-based path. Merchant patterns identify a
// specific business; keyword patterns only describe a kind of spend.
const (
	ConfidenceMerchant = 0.9
	ConfidenceKeyword  = 0.7
	ConfidenceFuzzy    = 0.6
	ConfidenceFallback = 0.4
)

// Rule maps a set of description patterns to a category. Merchant rules
// carry a clean display name and outrank keyword rules.
type Rule struct {
	Category   string
	Patterns   []string
	CleanName  string // Merchant rules only
	IsMerchant bool
	Tags       []string
}

// ValidCategory reports whether the category belongs to the canonical
// vocabulary.
func ValidCategory(category string) bool {
	switch category {
	case CategoryGroceries, CategoryFoodDrink, CategoryTransport,
		CategoryUtilities, CategoryShopping, CategoryEntertainment,
		CategoryHealth, CategoryHousing, CategoryFinance,
		CategorySubscriptions, CategorySalary, CategoryRefund,
		CategoryInterest, CategoryTransfer, CategoryUncategorised:
		return true
	}
	return false
}

// Expense-side merchant rules, mostly NZ businesses plus global brands that
// show up in local statements.
var expenseMerchantRules = []Rule{
	{Category: CategoryGroceries, IsMerchant: true, CleanName: "Countdown", Patterns: []string{"countdown"}},
	{Category: CategoryGroceries, IsMerchant: true, CleanName: "PAK'nSAVE", Patterns: []string{"pak'nsave", "pak n save", "paknsave"}},
	{Category: CategoryGroceries, IsMerchant: true, CleanName: "New World", Patterns: []string{"new world"}},
	{Category: CategoryGroceries, IsMerchant: true, CleanName: "Four Square", Patterns: []string{"four square"}},
	{Category: CategoryGroceries, IsMerchant: true, CleanName: "Woolworths", Patterns: []string{"woolworths"}},
	{Category: CategoryFoodDrink, IsMerchant: true, CleanName: "McDonald's", Patterns: []string{"mcdonald"}},
	{Category: CategoryFoodDrink, IsMerchant: true, CleanName: "KFC", Patterns: []string{"kfc"}},
	{Category: CategoryFoodDrink, IsMerchant: true, CleanName: "Burger King", Patterns: []string{"burger king"}},
	{Category: CategoryFoodDrink, IsMerchant: true, CleanName: "Subway", Patterns: []string{"subway"}},
	{Category: CategoryFoodDrink, IsMerchant: true, CleanName: "Starbucks", Patterns: []string{"starbucks"}},
	{Category: CategoryTransport, IsMerchant: true, CleanName: "Uber", Patterns: []string{"uber"}},
	{Category: CategoryTransport, IsMerchant: true, CleanName: "BP", Patterns: []string{"bp connect", "bp 2go"}},
	{Category: CategoryTransport, IsMerchant: true, CleanName: "Z Energy", Patterns: []string{"z energy"}},
	{Category: CategoryTransport, IsMerchant: true, CleanName: "Mobil", Patterns: []string{"mobil"}},
	{Category: CategoryTransport, IsMerchant: true, CleanName: "Caltex", Patterns: []string{"caltex"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "Meridian Energy", Patterns: []string{"meridian"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "Mercury", Patterns: []string{"mercury"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "Genesis Energy", Patterns: []string{"genesis"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "Contact Energy", Patterns: []string{"contact energy"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "Spark", Patterns: []string{"spark"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "Vodafone", Patterns: []string{"vodafone", "one nz"}},
	{Category: CategoryUtilities, IsMerchant: true, CleanName: "2degrees", Patterns: []string{"2degrees"}},
	{Category: CategoryShopping, IsMerchant: true, CleanName: "The Warehouse", Patterns: []string{"warehouse"}},
	{Category: CategoryShopping, IsMerchant: true, CleanName: "Kmart", Patterns: []string{"kmart"}},
	{Category: CategoryShopping, IsMerchant: true, CleanName: "Farmers", Patterns: []string{"farmers"}},
	{Category: CategoryShopping, IsMerchant: true, CleanName: "Bunnings", Patterns: []string{"bunnings"}},
	{Category: CategoryShopping, IsMerchant: true, CleanName: "Mitre 10", Patterns: []string{"mitre 10"}},
	{Category: CategoryShopping, IsMerchant: true, CleanName: "Amazon", Patterns: []string{"amazon"}},
	{Category: CategorySubscriptions, IsMerchant: true, CleanName: "Netflix", Patterns: []string{"netflix"}},
	{Category: CategorySubscriptions, IsMerchant: true, CleanName: "Spotify", Patterns: []string{"spotify"}},
	{Category: CategorySubscriptions, IsMerchant: true, CleanName: "Disney+", Patterns: []string{"disney"}},
	{Category: CategoryHealth, IsMerchant: true, CleanName: "Chemist Warehouse", Patterns: []string{"chemist warehouse"}},
	{Category: CategoryHealth, IsMerchant: true, CleanName: "Unichem", Patterns: []string{"unichem"}},
}

// Expense-side keyword rules, matched when no merchant pattern fires.
var expenseKeywordRules = []Rule{
	{Category: CategoryGroceries, Patterns: []string{"grocer", "supermarket"}, Tags: []string{"essentials"}},
	{Category: CategoryFoodDrink, Patterns: []string{"cafe", "coffee", "restaurant", "takeaway", "dining", "pizza", "bakery", "bar "}},
	{Category: CategoryTransport, Patterns: []string{"fuel", "petrol", "parking", "taxi", "bus ", "train", "ferry", "at hop"}},
	{Category: CategoryUtilities, Patterns: []string{"power", "electricity", "gas bill", "internet", "broadband", "mobile plan", "water rates"}},
	{Category: CategoryHousing, Patterns: []string{"rent", "mortgage", "body corp", "rates instal"}, Tags: []string{"essentials"}},
	{Category: CategoryHealth, Patterns: []string{"pharmacy", "doctor", "dental", "medical", "gym", "physio"}},
	{Category: CategoryEntertainment, Patterns: []string{"cinema", "movie", "theatre", "concert", "event ", "game"}},
	{Category: CategorySubscriptions, Patterns: []string{"subscription", "membership"}},
	{Category: CategoryFinance, Patterns: []string{"insurance", "bank fee", "account fee", "card fee", "loan payment"}},
	{Category: CategoryTransfer, Patterns: []string{"transfer", "atm withdrawal", "cash out"}},
	{Category: CategoryShopping, Patterns: []string{"online purchase", "retail"}},
}

// Income-side rules, gated by a positive amount.
var incomeKeywordRules = []Rule{
	{Category: CategorySalary, Patterns: []string{"salary", "wages", "payroll", "pay run"}, Tags: []string{"income"}},
	{Category: CategoryRefund, Patterns: []string{"refund", "reversal", "reimburse"}, Tags: []string{"income"}},
	{Category: CategoryInterest, Patterns: []string{"interest"}, Tags: []string{"income"}},
	{Category: CategoryFinance, Patterns: []string{"dividend"}, Tags: []string{"income"}},
	{Category: CategoryTransfer, Patterns: []string{"transfer", "deposit"}},
}

// ExpenseRules returns merchant rules followed by keyword rules so the
// engine gives merchants precedence.
func ExpenseRules() []Rule {
	out := make([]Rule, 0, len(expenseMerchantRules)+len(expenseKeywordRules))
	out = append(out, expenseMerchantRules...)
	out = append(out, expenseKeywordRules...)
	return out
}

func IncomeRules() []Rule {
	out := make([]Rule, len(incomeKeywordRules))
	copy(out, incomeKeywordRules)
	return out
}
