package storage

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Get reads the JSON value stored under key. found is false when the key
// does not exist; any other failure is returned as an error.
func Get[T any](db DB, key string) (value T, found bool, err error) {
	raw, err := db.Get([]byte(key))
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key as JSON.
func Set[T any](db DB, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := db.Put([]byte(key), raw); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func Remove(db DB, key string) error {
	if err := db.Delete([]byte(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
