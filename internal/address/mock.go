package address

import (
	"context"
	"sync"
)

// MockLookuper is a test implementation of Lookuper.
type MockLookuper struct {
	LookupFunc func(ctx context.Context, key string) (*Address, error)

	mu    sync.Mutex
	calls []string
}

// NewMockLookuper creates a mock that resolves every key to a fixed São Paulo address.
func NewMockLookuper() *MockLookuper {
	return &MockLookuper{}
}

// Lookup delegates to LookupFunc or returns a default address for key.
func (m *MockLookuper) Lookup(ctx context.Context, key string) (*Address, error) {
	m.mu.Lock()
	m.calls = append(m.calls, key)
	m.mu.Unlock()

	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, key)
	}
	return &Address{
		PostalCode: FormatCode(key),
		Street:     "Avenida Paulista",
		District:   "Bela Vista",
		City:       "São Paulo",
		StateCode:  "SP",
	}, nil
}

// Calls returns the keys passed to Lookup, in order.
func (m *MockLookuper) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
