// Package addrset turns raw address input into validated addresses for one
// chain and network.
package addrset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	btcchaincfg "github.com/btcsuite/btcd/chaincfg"
	ltcchaincfg "github.com/ltcsuite/ltcd/chaincfg"
	"github.com/ltcsuite/ltcd/ltcutil"
)

// Address is a validated address in canonical encoding.
type Address string

func (a Address) String() string { return string(a) }

// Strings converts addresses back to plain strings.
func Strings(addrs []Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = string(a)
	}
	return out
}

// InvalidAddressError reports the first entry that failed to decode.
type InvalidAddressError struct {
	Input  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// ErrUnsupportedChain is returned by New for chains without a decoder.
var ErrUnsupportedChain = errors.New("unsupported chain")

type decodeFunc func(string) (string, error)

// Resolver validates addresses for a single chain and network.
type Resolver struct {
	chain  string
	decode decodeFunc
}

// New builds a resolver for chain ("btc", "ltc") on network ("mainnet",
// "testnet", "regtest"). An empty network means mainnet.
func New(chain, network string) (*Resolver, error) {
	switch chain {
	case "btc":
		params, err := btcParams(network)
		if err != nil {
			return nil, err
		}
		return &Resolver{chain: chain, decode: func(s string) (string, error) {
			a, err := btcutil.DecodeAddress(s, params)
			if err != nil {
				return "", err
			}
			if !a.IsForNet(params) {
				return "", fmt.Errorf("address is not for %s", params.Name)
			}
			return a.EncodeAddress(), nil
		}}, nil
	case "ltc":
		params, err := ltcParams(network)
		if err != nil {
			return nil, err
		}
		return &Resolver{chain: chain, decode: func(s string) (string, error) {
			a, err := ltcutil.DecodeAddress(s, params)
			if err != nil {
				return "", err
			}
			if !a.IsForNet(params) {
				return "", fmt.Errorf("address is not for %s", params.Name)
			}
			return a.EncodeAddress(), nil
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, chain)
	}
}

func btcParams(network string) (*btcchaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &btcchaincfg.MainNetParams, nil
	case "testnet":
		return &btcchaincfg.TestNet3Params, nil
	case "regtest":
		return &btcchaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("unknown btc network %q", network)
}

func ltcParams(network string) (*ltcchaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &ltcchaincfg.MainNetParams, nil
	case "testnet":
		return &ltcchaincfg.TestNet4Params, nil
	case "regtest":
		return &ltcchaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("unknown ltc network %q", network)
}

// Chain returns the chain the resolver validates for.
func (r *Resolver) Chain() string { return r.chain }

// ParseOne validates a single address.
func (r *Resolver) ParseOne(s string) (Address, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", &InvalidAddressError{Input: s, Reason: "empty address"}
	}
	canonical, err := r.decode(trimmed)
	if err != nil {
		return "", &InvalidAddressError{Input: s, Reason: err.Error()}
	}
	return Address(canonical), nil
}

// Parse validates a comma separated list. Empty input yields no addresses;
// otherwise the first bad entry fails the whole list.
func (r *Resolver) Parse(raw string) ([]Address, error) {
	if strings.TrimSpace(raw) == "" {
		return []Address{}, nil
	}
	return r.ParseList(strings.Split(raw, ","))
}

// ParseList validates every entry, all or nothing.
func (r *Resolver) ParseList(entries []string) ([]Address, error) {
	addrs := make([]Address, 0, len(entries))
	for _, e := range entries {
		a, err := r.ParseOne(e)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}
