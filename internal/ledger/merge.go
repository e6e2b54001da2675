package ledger

import "ogbarber/backend/internal/domain"

// SectionValue is a tagged union of the three independently writable
// sub-sections of a day record. Exactly one field must be set.
type SectionValue struct {
	Worker   *domain.WorkerEntry
	Income   *domain.IncomeEntry
	Expenses *domain.ExpenseEntry
}

// NewDayRecord returns the empty record created implicitly the first time
// any sub-section is written for a date.
func NewDayRecord(date string) domain.DayRecord {
	return domain.DayRecord{Date: date, Workers: []domain.WorkerEntry{}}
}

// FindDayRecord scans records for the one matching date. The store gives no
// order guarantee, so a full scan is the lookup.
func FindDayRecord(records []domain.DayRecord, date string) (domain.DayRecord, bool) {
	for _, rec := range records {
		if rec.Date == date {
			return rec, true
		}
	}
	return domain.DayRecord{}, false
}

// MergeSection returns rec with only the named section replaced. The three
// sections are mutually independent: writing one never touches the other
// two. A zero-valued section is a valid explicit write, not absence.
//
// Worker entries merge by worker identity: an existing entry for the same
// worker is replaced in place, otherwise the entry is appended.
func MergeSection(rec domain.DayRecord, val SectionValue) domain.DayRecord {
	switch {
	case val.Worker != nil:
		rec.Workers = mergeWorkerEntry(rec.Workers, *val.Worker)
	case val.Income != nil:
		income := *val.Income
		rec.Income = &income
	case val.Expenses != nil:
		expenses := *val.Expenses
		rec.Expenses = &expenses
	}
	return rec
}

func mergeWorkerEntry(entries []domain.WorkerEntry, entry domain.WorkerEntry) []domain.WorkerEntry {
	merged := make([]domain.WorkerEntry, len(entries))
	copy(merged, entries)
	for i := range merged {
		if merged[i].Worker == entry.Worker {
			merged[i] = entry
			return merged
		}
	}
	return append(merged, entry)
}
