package money

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// TestDataGenerator fabricates realistic transaction data for tests and
// benchmarks.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator returns a generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed returns a reproducible generator.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// TestTransaction is one generated transaction.
type TestTransaction struct {
	ID          uuid.UUID
	Date        time.Time
	Description string
	Merchant    string
	Amount      *Money
	IsIncome    bool
}

var merchantPool = []string{
	"COUNTDOWN AUCKLAND", "PAK'NSAVE ALBANY", "NEW WORLD METRO",
	"Z ENERGY GREENLANE", "BP CONNECT", "NETFLIX.COM", "SPOTIFY P91",
	"UBER *TRIP", "KMART NEWMARKET", "MERIDIAN ENERGY", "LOCAL CAFE",
	"CHEMIST WAREHOUSE", "MITRE 10 MEGA", "AT HOP TOPUP",
}

// Amount returns a random expense or income amount in the currency.
func (g *TestDataGenerator) Amount(min, max float64, currencyCode string) *Money {
	cents := int64(g.faker.Float64Range(min, max) * 100)
	return New(cents, currencyCode)
}

// Transaction fabricates one transaction within the last year.
func (g *TestDataGenerator) Transaction(currencyCode string) TestTransaction {
	isIncome := g.faker.Number(0, 9) == 0 // Roughly one income row in ten

	var desc string
	var amount *Money
	if isIncome {
		desc = "SALARY " + g.faker.Company()
		amount = g.Amount(1500, 6000, currencyCode)
	} else {
		desc = merchantPool[g.faker.Number(0, len(merchantPool)-1)]
		amount = g.Amount(2, 400, currencyCode).Negate()
	}

	return TestTransaction{
		ID:          uuid.New(),
		Date:        g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
		Description: desc,
		Merchant:    desc,
		Amount:      amount,
		IsIncome:    isIncome,
	}
}

// Transactions fabricates n transactions.
func (g *TestDataGenerator) Transactions(n int, currencyCode string) []TestTransaction {
	out := make([]TestTransaction, n)
	for i := range out {
		out[i] = g.Transaction(currencyCode)
	}
	return out
}
