package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thanhnp/insight-apis/internal/addressbook"
	"github.com/thanhnp/insight-apis/internal/models"
	"github.com/thanhnp/insight-apis/internal/txdb"
)

type fakeBook struct {
	mu    sync.Mutex
	infos map[string]*models.AddressInfo
	errs  map[string]error
	calls []addressbook.UpdateOptions
}

func newFakeBook() *fakeBook {
	return &fakeBook{
		infos: make(map[string]*models.AddressInfo),
		errs:  make(map[string]error),
	}
}

func (b *fakeBook) Update(_ context.Context, address string, opts addressbook.UpdateOptions) (*models.AddressInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, opts)
	if err := b.errs[address]; err != nil {
		return nil, err
	}
	if info, ok := b.infos[address]; ok {
		cp := *info
		return &cp, nil
	}
	return &models.AddressInfo{Address: address}, nil
}

func (b *fakeBook) withTxs(address string, txs ...models.TxSummary) *fakeBook {
	b.infos[address] = &models.AddressInfo{Address: address, Transactions: txs}
	return b
}

type fakeTxs struct {
	mu       sync.Mutex
	details  map[string]*models.TxDetail
	errs     map[string]error
	fetched  []string
	delay    time.Duration
	inFlight int
	peak     int
}

func newFakeTxs() *fakeTxs {
	return &fakeTxs{
		details: make(map[string]*models.TxDetail),
		errs:    make(map[string]error),
	}
}

func (f *fakeTxs) FetchByID(_ context.Context, txid string) (*models.TxDetail, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, txid)
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	delay := f.delay
	f.mu.Unlock()

	time.Sleep(delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--

	if err := f.errs[txid]; err != nil {
		return nil, err
	}
	d, ok := f.details[txid]
	if !ok {
		return nil, fmt.Errorf("%s: %w", txid, txdb.ErrTxNotFound)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeTxs) add(details ...*models.TxDetail) *fakeTxs {
	for _, d := range details {
		f.details[d.TxID] = d
	}
	return f
}

func (f *fakeTxs) fetchedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

func ts(v int64) *int64 { return &v }

func intp(v int) *int { return &v }

func summary(id string, firstSeen, chainTs int64) models.TxSummary {
	s := models.TxSummary{TxID: id}
	if firstSeen != 0 {
		s.FirstSeenTs = ts(firstSeen)
	}
	if chainTs != 0 {
		s.Ts = ts(chainTs)
	}
	return s
}

func vout(n int, sat int64, addrs ...string) models.VoutDetail {
	return models.VoutDetail{
		N:            n,
		Value:        models.SatToCoin(sat),
		ValueSat:     sat,
		ScriptPubKey: models.ScriptPubKey{Addresses: addrs},
	}
}

func vin(addr string) models.VinDetail {
	return models.VinDetail{Addr: addr}
}
