package multichain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	m := New[int]()
	m.RegisterChain("ltc", 2)
	m.RegisterChain("btc", 1)

	v, err := m.Get("btc")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = m.Get("doge")
	assert.ErrorContains(t, err, "chain not registered")

	assert.Equal(t, []string{"btc", "ltc"}, m.Chains())
}

func TestRegistry_Empty(t *testing.T) {
	m := New[string]()

	assert.Empty(t, m.Chains())
	v, err := m.Get("btc")
	assert.Error(t, err)
	assert.Empty(t, v)
}
