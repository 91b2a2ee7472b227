// Package bankformat scores statement headers against a catalog of known bank
// export layouts and resolves which column serves each role (date,
// description, amount). When no catalog entry scores highly enough it falls
// back to fuzzy column-name matching.
package bankformat

import "regexp"

// Role is the purpose a statement column is inferred to serve.
type Role string

const (
	RoleDate        Role = "date"
	RoleDescription Role = "description"
	RoleAmount      Role = "amount"
	RoleBalance     Role = "balance"
	RoleReference   Role = "reference"
)

// Profile describes one bank's CSV export layout: header synonyms per role,
// accepted date formats, and validation patterns for sample data. Profiles
// are read-only reference data.
type Profile struct {
	ID          string
	Name        string
	Country     string
	DateFormats []string // In DD/MM/YYYY-style notation, most likely first
	Synonyms    map[Role][]string

	DatePattern     *regexp.Regexp
	AmountPattern   *regexp.Regexp
	NegativePattern *regexp.Regexp
}

var (
	slashDate   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`)
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ T]\d{2}:\d{2}(:\d{2})?)?$`)
	plainAmount = regexp.MustCompile(`^-?\$?\d{1,3}(,\d{3})*(\.\d{1,2})?$|^-?\d+(\.\d{1,2})?$`)
	euroAmount  = regexp.MustCompile(`^-?€?\d{1,3}(\.\d{3})*(,\d{1,2})?$|^-?\d+(,\d{1,2})?$`)
	leadingNeg  = regexp.MustCompile(`^-|^\(`)
)

// Catalog returns the built-in bank layout catalog.
func Catalog() []Profile {
	return profiles
}

var profiles = []Profile{
	{
		ID:          "anz_nz",
		Name:        "ANZ New Zealand",
		Country:     "NZ",
		DateFormats: []string{"DD/MM/YYYY"},
		Synonyms: map[Role][]string{
			RoleDate:        {"date", "transaction date"},
			RoleDescription: {"details", "particulars", "transaction details"},
			RoleAmount:      {"amount"},
			RoleBalance:     {"balance"},
			RoleReference:   {"reference", "code"},
		},
		DatePattern:     slashDate,
		AmountPattern:   plainAmount,
		NegativePattern: leadingNeg,
	},
	{
		ID:          "asb",
		Name:        "ASB Bank",
		Country:     "NZ",
		DateFormats: []string{"DD/MM/YYYY", "YYYY/MM/DD"},
		Synonyms: map[Role][]string{
			RoleDate:        {"date"},
			RoleDescription: {"payee", "memo", "tran type"},
			RoleAmount:      {"amount"},
			RoleReference:   {"unique id", "cheque number"},
		},
		DatePattern:     slashDate,
		AmountPattern:   plainAmount,
		NegativePattern: leadingNeg,
	},
	{
		ID:          "westpac_nz",
		Name:        "Westpac New Zealand",
		Country:     "NZ",
		DateFormats: []string{"DD/MM/YYYY"},
		Synonyms: map[Role][]string{
			RoleDate:        {"date"},
			RoleDescription: {"other party", "particulars"},
			RoleAmount:      {"amount"},
			RoleReference:   {"reference", "analysis code"},
		},
		DatePattern:     slashDate,
		AmountPattern:   plainAmount,
		NegativePattern: leadingNeg,
	},
	{
		ID:          "kiwibank",
		Name:        "Kiwibank",
		Country:     "NZ",
		DateFormats: []string{"DD-MM-YYYY", "DD/MM/YYYY"},
		Synonyms: map[Role][]string{
			RoleDate:        {"date"},
			RoleDescription: {"memo/description", "memo"},
			RoleAmount:      {"amount"},
			RoleBalance:     {"balance"},
			RoleReference:   {"tp ref", "source code (payment type)"},
		},
		DatePattern:     slashDate,
		AmountPattern:   plainAmount,
		NegativePattern: leadingNeg,
	},
	{
		ID:          "revolut",
		Name:        "Revolut",
		Country:     "GB",
		DateFormats: []string{"YYYY-MM-DD"},
		Synonyms: map[Role][]string{
			RoleDate:        {"completed date", "started date"},
			RoleDescription: {"description", "type"},
			RoleAmount:      {"amount"},
			RoleBalance:     {"balance"},
			RoleReference:   {"product", "state"},
		},
		DatePattern:     isoDate,
		AmountPattern:   plainAmount,
		NegativePattern: leadingNeg,
	},
	{
		ID:          "millennium_bcp",
		Name:        "Millennium BCP",
		Country:     "PT",
		DateFormats: []string{"DD-MM-YYYY", "DD/MM/YYYY"},
		Synonyms: map[Role][]string{
			RoleDate:        {"data mov.", "data mov", "data valor", "data"},
			RoleDescription: {"descrição", "descricao"},
			RoleAmount:      {"valor", "montante", "importância"},
			RoleBalance:     {"saldo"},
		},
		DatePattern:     regexp.MustCompile(`^\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}$`),
		AmountPattern:   euroAmount,
		NegativePattern: leadingNeg,
	},
	{
		ID:          "generic",
		Name:        "Generic statement",
		Country:     "",
		DateFormats: []string{"DD/MM/YYYY", "YYYY-MM-DD"},
		Synonyms: map[Role][]string{
			RoleDate:        {"date", "transaction date", "posted date", "value date"},
			RoleDescription: {"description", "details", "narrative", "merchant", "payee"},
			RoleAmount:      {"amount", "value", "transaction amount"},
			RoleBalance:     {"balance", "running balance"},
			RoleReference:   {"reference", "ref"},
		},
		DatePattern:     regexp.MustCompile(`^\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}$|^\d{4}-\d{2}-\d{2}$`),
		AmountPattern:   plainAmount,
		NegativePattern: leadingNeg,
	},
}
