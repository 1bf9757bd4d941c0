package aggregator

import (
	"sort"

	"github.com/thanhnp/insight-apis/internal/models"
)

// Window is the requested [From, To) slice of a listing. Nil bounds were not
// supplied by the caller.
type Window struct {
	From *int
	To   *int
}

// merge flattens the per-address lists keeping the first summary seen for
// each id.
func merge(lists [][]models.TxSummary) []models.TxSummary {
	seen := make(map[string]struct{})
	var merged []models.TxSummary
	for _, list := range lists {
		for _, tx := range list {
			if _, ok := seen[tx.TxID]; ok {
				continue
			}
			seen[tx.TxID] = struct{}{}
			merged = append(merged, tx)
		}
	}
	return merged
}

// resolve turns w into concrete bounds with 0 <= from <= to <= total and
// to-from <= maxBatch.
func (w Window) resolve(total, maxBatch int) (from, to int) {
	// Saturate supplied bounds so from+maxBatch and to-from cannot overflow.
	limit := total + maxBatch
	bound := func(p *int) int { return clamp(*p, -limit, limit) }

	switch {
	case w.From == nil && w.To == nil:
		from, to = 0, maxBatch
	case w.To == nil:
		from = bound(w.From)
		to = from + maxBatch
	case w.From == nil:
		from, to = 0, bound(w.To)
	default:
		from, to = bound(w.From), bound(w.To)
	}

	if to-from > maxBatch {
		to = from + maxBatch
	}

	from = clamp(from, 0, total)
	to = clamp(to, from, total)
	return from, to
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sortNewestFirst orders by first-seen time (block time when unknown),
// newest first, then by id descending.
func sortNewestFirst(txs []models.TxSummary) {
	sort.Slice(txs, func(i, j int) bool {
		a, b := txs[i].SortTs(), txs[j].SortTs()
		if a != b {
			return a > b
		}
		return txs[i].TxID > txs[j].TxID
	})
}
