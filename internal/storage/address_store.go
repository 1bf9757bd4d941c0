package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thanhnp/insight-apis/internal/models"
)

// OutPoint references one input or output of a transaction
type OutPoint struct {
	TxID  string
	Index int
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}

func parseOutPoint(s string) (OutPoint, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return OutPoint{}, fmt.Errorf("malformed reference %q", s)
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return OutPoint{}, fmt.Errorf("malformed reference %q: %w", s, err)
	}
	return OutPoint{TxID: s[:i], Index: idx}, nil
}

// AddressStore handles address storage operations
type AddressStore struct {
	db *PebbleDB
}

// NewAddressStore creates a new AddressStore
func NewAddressStore(db *PebbleDB) *AddressStore {
	return &AddressStore{db: db}
}

func addressKey(chain, address string) []byte {
	return []byte(fmt.Sprintf("%s:%s", chain, address))
}

func addressRefKey(chain, address, txid string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:%06d", chain, address, txid, index))
}

func addressPrefix(chain, address string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chain, address))
}

// Get retrieves an address; an address never seen on chain is returned
// with zero balances rather than ErrNotFound.
func (s *AddressStore) Get(chain, address string) (*models.Address, error) {
	addr, err := getJSON[models.Address](s.db, CFAddresses, addressKey(chain, address))
	if errors.Is(err, ErrNotFound) {
		return &models.Address{Address: address, Chain: chain}, nil
	}
	return addr, err
}

// UpdateBalance applies received/sent deltas (negative when reverting)
func (s *AddressStore) UpdateBalance(chain, address string, received, sent int64, txCountDelta int) error {
	addr, err := s.Get(chain, address)
	if err != nil {
		return err
	}

	addr.TotalReceived += received
	addr.TotalSent += sent
	addr.Balance = addr.TotalReceived - addr.TotalSent
	addr.TxCount += txCountDelta

	return putJSON(s.db, CFAddresses, addressKey(chain, address), addr)
}

// AddVinReference records that an input of txid spent from address
func (s *AddressStore) AddVinReference(chain, address, txid string, index int) error {
	ref := OutPoint{TxID: txid, Index: index}
	return s.db.Put(CFAddressVins, addressRefKey(chain, address, txid, index), []byte(ref.String()))
}

// AddVoutReference records that an output of txid pays address
func (s *AddressStore) AddVoutReference(chain, address, txid string, index int) error {
	ref := OutPoint{TxID: txid, Index: index}
	return s.db.Put(CFAddressVouts, addressRefKey(chain, address, txid, index), []byte(ref.String()))
}

// RemoveVinReference removes a vin reference from an address
func (s *AddressStore) RemoveVinReference(chain, address, txid string, index int) error {
	return s.db.Delete(CFAddressVins, addressRefKey(chain, address, txid, index))
}

// RemoveVoutReference removes a vout reference from an address
func (s *AddressStore) RemoveVoutReference(chain, address, txid string, index int) error {
	return s.db.Delete(CFAddressVouts, addressRefKey(chain, address, txid, index))
}

// GetVinReferences lists the inputs that spent from address
func (s *AddressStore) GetVinReferences(chain, address string) ([]OutPoint, error) {
	return s.references(CFAddressVins, chain, address)
}

// GetVoutReferences lists the outputs that paid address
func (s *AddressStore) GetVoutReferences(chain, address string) ([]OutPoint, error) {
	return s.references(CFAddressVouts, chain, address)
}

func (s *AddressStore) references(cf, chain, address string) ([]OutPoint, error) {
	var refs []OutPoint
	err := s.db.Scan(cf, addressPrefix(chain, address), func(_, value []byte) error {
		ref, err := parseOutPoint(string(value))
		if err != nil {
			return err
		}
		refs = append(refs, ref)
		return nil
	})
	return refs, err
}
