package models

// PagedResult is one window of a merged, deduplicated transaction listing.
// TotalItems counts the whole merged set; Items holds positions [From, To).
type PagedResult struct {
	TotalItems int      `json:"totalItems"`
	From       int      `json:"from"`
	To         int      `json:"to"`
	Items      []TxItem `json:"items"`
}
