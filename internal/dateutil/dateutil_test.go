package dateutil

import (
	"testing"
	"time"
)

func TestParseKeyAcceptsCanonicalDates(t *testing.T) {
	parsed, err := ParseKey("2024-02-29")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.Year() != 2024 || parsed.Month() != time.February || parsed.Day() != 29 {
		t.Fatalf("unexpected parsed date: %v", parsed)
	}
}

func TestParseKeyRejectsNonCanonicalSpellings(t *testing.T) {
	bad := []string{
		"2024-1-2",
		"24-01-02",
		"2024/01/02",
		"2024-13-01",
		"2023-02-29",
		"2024-01-02T00:00:00Z",
		"",
	}
	for _, input := range bad {
		if IsValidKey(input) {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}

func TestFormatKeyRoundTrips(t *testing.T) {
	key := "2025-08-31"
	parsed, err := ParseKey(key)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := FormatKey(parsed); got != key {
		t.Fatalf("round trip changed the key: %q -> %q", key, got)
	}
}
