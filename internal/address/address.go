package address

import "context"

// Lookuper resolves a lookup key against the postal-code registry.
// Implementations return *Error values classified as not-found or transport
// failures; a nil error always comes with a non-nil Address.
type Lookuper interface {
	// Lookup resolves a digit-only lookup key.
	Lookup(ctx context.Context, key string) (*Address, error)
}

// Address is a resolved registry entry.
// Street, Complement and District may be empty for codes that cover a whole
// municipality; that is not a failure.
type Address struct {
	PostalCode string `json:"cep"`
	Street     string `json:"logradouro"`
	Complement string `json:"complemento"`
	District   string `json:"bairro"`
	City       string `json:"localidade"`
	StateCode  string `json:"uf"`
	StateName  string `json:"estado,omitempty"`
	IBGECode   string `json:"ibge,omitempty"`
	DDD        string `json:"ddd,omitempty"`
}

// Placeholder is shown in place of an empty optional field.
const Placeholder = "N/A"

// Display returns s, or Placeholder when s is empty.
func Display(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// Line is one labeled row of a rendered address.
type Line struct {
	Label string
	Value string
}

// Lines returns the address rows in display order with placeholders applied.
func (a *Address) Lines() []Line {
	if a == nil {
		return nil
	}
	return []Line{
		{Label: "CEP", Value: Display(a.PostalCode)},
		{Label: "Logradouro", Value: Display(a.Street)},
		{Label: "Bairro", Value: Display(a.District)},
		{Label: "Cidade", Value: Display(a.City)},
		{Label: "Estado", Value: Display(a.StateCode)},
	}
}
