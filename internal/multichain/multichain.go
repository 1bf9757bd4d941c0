// Package multichain keys per-chain values by chain name.
package multichain

import (
	"fmt"
	"sort"
)

// Registry maps chain names ("btc", "ltc") to per-chain values
type Registry[T any] struct {
	items map[string]T
}

// New creates an empty registry
func New[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// RegisterChain registers the value for a chain
func (m *Registry[T]) RegisterChain(chain string, item T) {
	m.items[chain] = item
}

// Get returns the value for the given chain
func (m *Registry[T]) Get(chain string) (T, error) {
	item, ok := m.items[chain]
	if !ok {
		var zero T
		return zero, fmt.Errorf("chain not registered: %s", chain)
	}
	return item, nil
}

// Chains returns the registered chain names, sorted
func (m *Registry[T]) Chains() []string {
	chains := make([]string, 0, len(m.items))
	for c := range m.items {
		chains = append(chains, c)
	}
	sort.Strings(chains)
	return chains
}
