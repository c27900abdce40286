package test

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceProviderStub serves catalog prices from a map.
type PriceProviderStub struct {
	sync.Mutex
	Prices map[string]decimal.Decimal
	Err    error

	lookups []string
}

// Price returns the configured price or Err.
func (s *PriceProviderStub) Price(ctx context.Context, productID string) (decimal.Decimal, error) {
	s.Lock()
	defer s.Unlock()
	s.lookups = append(s.lookups, productID)
	if s.Err != nil {
		return decimal.Zero, s.Err
	}
	return s.Prices[productID], nil
}

// Lookups lists requested product ids.
func (s *PriceProviderStub) Lookups() []string {
	s.Lock()
	defer s.Unlock()
	return append([]string(nil), s.lookups...)
}
