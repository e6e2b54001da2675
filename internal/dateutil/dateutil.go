package dateutil

import (
	"fmt"
	"time"
)

// KeyLayout is the canonical date-key format used as the ledger's primary key.
const KeyLayout = "2006-01-02"

// ParseKey parses a canonical YYYY-MM-DD date key. Non-canonical spellings
// ("2024-1-2", trailing garbage) and impossible dates are rejected: the key
// is a primary key, so two spellings of the same day must never coexist.
func ParseKey(s string) (time.Time, error) {
	t, err := time.Parse(KeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: must be YYYY-MM-DD", s)
	}
	if t.Format(KeyLayout) != s {
		return time.Time{}, fmt.Errorf("invalid date key %q: must be YYYY-MM-DD", s)
	}
	return t, nil
}

// IsValidKey reports whether s is a canonical YYYY-MM-DD date key.
func IsValidKey(s string) bool {
	_, err := ParseKey(s)
	return err == nil
}

// FormatKey renders t as a canonical date key.
func FormatKey(t time.Time) string {
	return t.Format(KeyLayout)
}
