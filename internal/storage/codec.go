package storage

import (
	"encoding/json"
	"fmt"
)

type putter interface {
	Put(cf string, key, value []byte) error
}

func putJSON(w putter, cf string, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return w.Put(cf, key, data)
}

func getJSON[T any](db *PebbleDB, cf string, key []byte) (*T, error) {
	data, err := db.Get(cf, key)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return &v, nil
}

func scanJSON[T any](db *PebbleDB, cf string, prefix []byte) ([]*T, error) {
	var out []*T
	err := db.Scan(cf, prefix, func(_, value []byte) error {
		var v T
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("failed to unmarshal %T: %w", v, err)
		}
		out = append(out, &v)
		return nil
	})
	return out, err
}
