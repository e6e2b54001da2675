package memory

import (
	"context"
	"testing"

	"ogbarber/backend/internal/domain"
)

func TestUpsertReplacesNotDuplicates(t *testing.T) {
	s := New(domain.DefaultPrices)
	ctx := context.Background()

	first := domain.DayRecord{Date: "2025-03-10", Workers: []domain.WorkerEntry{{Date: "2025-03-10", Worker: "A"}}}
	second := domain.DayRecord{Date: "2025-03-10", Workers: []domain.WorkerEntry{{Date: "2025-03-10", Worker: "B"}}}

	if err := s.UpsertDayRecord(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := s.UpsertDayRecord(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	records, err := s.GetAllDayRecords(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}

	matches := 0
	for _, rec := range records {
		if rec.Date == "2025-03-10" {
			matches++
			if len(rec.Workers) != 1 || rec.Workers[0].Worker != "B" {
				t.Fatalf("expected the second record to win, got %+v", rec)
			}
		}
	}
	if matches != 1 {
		t.Fatalf("expected exactly one record for the date, got %d", matches)
	}
}

func TestUpsertLeavesOtherDatesIntact(t *testing.T) {
	s := New(domain.DefaultPrices)
	ctx := context.Background()

	for _, date := range []string{"2025-03-08", "2025-03-09", "2025-03-10"} {
		if err := s.UpsertDayRecord(ctx, domain.DayRecord{Date: date}); err != nil {
			t.Fatalf("upsert %s failed: %v", date, err)
		}
	}
	if err := s.UpsertDayRecord(ctx, domain.DayRecord{Date: "2025-03-09", Workers: []domain.WorkerEntry{{Date: "2025-03-09", Worker: "A"}}}); err != nil {
		t.Fatalf("re-upsert failed: %v", err)
	}

	records, err := s.GetAllDayRecords(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestDeleteRemovesWholeRecord(t *testing.T) {
	s := New(domain.DefaultPrices)
	ctx := context.Background()

	if err := s.UpsertDayRecord(ctx, domain.DayRecord{Date: "2025-03-10"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.DeleteDayRecord(ctx, "2025-03-10"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	records, err := s.GetAllDayRecords(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	for _, rec := range records {
		if rec.Date == "2025-03-10" {
			t.Fatalf("record still present after delete")
		}
	}

	// Deleting a date that never existed is a no-op, not an error.
	if err := s.DeleteDayRecord(ctx, "2000-01-01"); err != nil {
		t.Fatalf("delete of absent date failed: %v", err)
	}
}

func TestUpsertRejectsEmptyDate(t *testing.T) {
	s := New(domain.DefaultPrices)
	if err := s.UpsertDayRecord(context.Background(), domain.DayRecord{}); err == nil {
		t.Fatalf("expected upsert without a date to fail")
	}
}

func TestUndecodableBlobIsCountedNotFatal(t *testing.T) {
	s := New(domain.DefaultPrices)
	ctx := context.Background()

	if err := s.UpsertDayRecord(ctx, domain.DayRecord{Date: "2025-03-10"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	s.AppendRawDayRecord([]byte("{not json"))

	records, err := s.GetAllDayRecords(ctx)
	if err != nil {
		t.Fatalf("get all failed: %v", err)
	}
	if len(records) != 1 || records[0].Date != "2025-03-10" {
		t.Fatalf("good record hidden by bad blob: %+v", records)
	}
	if s.Stats().DecodeFailures == 0 {
		t.Fatalf("expected decode failure to be counted")
	}
}

func TestRosterAddAndRemove(t *testing.T) {
	s := New(domain.DefaultPrices)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if err := s.AddWorker(ctx, name); err != nil {
			t.Fatalf("add worker %s failed: %v", name, err)
		}
	}

	workers, err := s.ListWorkers(ctx)
	if err != nil {
		t.Fatalf("list workers failed: %v", err)
	}
	// Additions prepend.
	if len(workers) != 3 || workers[0] != "C" || workers[2] != "A" {
		t.Fatalf("unexpected roster order: %v", workers)
	}

	if err := s.RemoveWorker(ctx, "B"); err != nil {
		t.Fatalf("remove worker failed: %v", err)
	}
	workers, err = s.ListWorkers(ctx)
	if err != nil {
		t.Fatalf("list workers failed: %v", err)
	}
	if len(workers) != 2 || workers[0] != "C" || workers[1] != "A" {
		t.Fatalf("remove broke roster order: %v", workers)
	}
}

func TestPricesDefaultOnFirstRead(t *testing.T) {
	s := New(domain.Prices{Plain: 11000, Combo: 12500})
	ctx := context.Background()

	prices, err := s.GetPrices(ctx)
	if err != nil {
		t.Fatalf("get prices failed: %v", err)
	}
	if prices.Plain != 11000 || prices.Combo != 12500 {
		t.Fatalf("expected configured defaults, got %+v", prices)
	}

	if err := s.SetPrices(ctx, domain.Prices{Plain: 15000, Combo: 17000}); err != nil {
		t.Fatalf("set prices failed: %v", err)
	}
	prices, err = s.GetPrices(ctx)
	if err != nil {
		t.Fatalf("get prices failed: %v", err)
	}
	if prices.Plain != 15000 || prices.Combo != 17000 {
		t.Fatalf("expected updated prices, got %+v", prices)
	}
}

func TestCutLogPreservesOrder(t *testing.T) {
	s := New(domain.DefaultPrices)
	ctx := context.Background()

	for _, id := range []string{"cut-1", "cut-2", "cut-3"} {
		if err := s.AppendCut(ctx, domain.CutEvent{ID: id, Kind: domain.ServicePlain, Worker: "A", PaymentMethod: domain.PaymentCash}); err != nil {
			t.Fatalf("append cut failed: %v", err)
		}
	}

	cuts, err := s.ListCuts(ctx)
	if err != nil {
		t.Fatalf("list cuts failed: %v", err)
	}
	if len(cuts) != 3 || cuts[0].ID != "cut-3" || cuts[2].ID != "cut-1" {
		t.Fatalf("unexpected cut order: %+v", cuts)
	}
}
