package service

import (
	"context"
	"errors"
	"testing"

	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/store"
	"ogbarber/backend/internal/store/memory"
)

func i64(v int64) *int64 {
	return &v
}

func newTestService() (*Service, *memory.Store) {
	repo := memory.New(domain.DefaultPrices)
	return New(repo), repo
}

func TestStoreStatsSurfaceDecodeFailures(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	repo.AppendRawDayRecord([]byte("{corrupt"))
	if _, err := svc.ListDayRecords(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if svc.StoreStats().DecodeFailures == 0 {
		t.Fatalf("expected decode failure to surface through the service")
	}
}

func TestWriteWorkerEntryCreatesRecordImplicitly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(2), ElectronicCount: i64(1)},
		},
	})
	if err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}

	records, err := svc.ListDayRecords(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 || records[0].Date != "2025-03-10" {
		t.Fatalf("expected one record for the date, got %+v", records)
	}
	if records[0].Income != nil || records[0].Expenses != nil {
		t.Fatalf("implicit creation must leave the other sections absent")
	}
}

func TestSectionWritesAreIndependent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entry := domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(2), ElectronicCount: i64(1)},
		},
		SpecialCuts: []domain.SpecialCut{{Amount: 5000}},
	}
	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", entry); err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}

	// 2*12000 + 1*12000 + 5000 special.
	if err := svc.WriteIncome(ctx, domain.IncomeWriteRequest{
		Date:               "2025-03-10",
		CashServices:       29000,
		ElectronicServices: 12000,
		Supplies:           1000,
	}); err != nil {
		t.Fatalf("write income failed: %v", err)
	}

	if err := svc.WriteExpenses(ctx, domain.ExpenseWriteRequest{
		Date: "2025-03-10",
		Cash: domain.ExpenseBreakdown{Supplies: 700},
	}); err != nil {
		t.Fatalf("write expenses failed: %v", err)
	}

	records, err := svc.ListDayRecords(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected a single merged record, got %d", len(records))
	}

	rec := records[0]
	if len(rec.Workers) != 1 || rec.Workers[0].Worker != "A" || len(rec.Workers[0].Services) != 1 {
		t.Fatalf("worker entries damaged by section writes: %+v", rec.Workers)
	}
	if rec.Workers[0].SpecialCuts[0].Amount != 5000 {
		t.Fatalf("special cuts damaged by section writes: %+v", rec.Workers[0].SpecialCuts)
	}
	if rec.Income == nil || rec.Income.Supplies != 1000 {
		t.Fatalf("income missing after expense write: %+v", rec.Income)
	}
	if rec.Expenses == nil || rec.Expenses.Cash.Supplies != 700 {
		t.Fatalf("expenses missing: %+v", rec.Expenses)
	}
}

func TestWriteIncomeRejectsMismatchedSplit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(1), ElectronicCount: i64(0)},
		},
	}); err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}

	err := svc.WriteIncome(ctx, domain.IncomeWriteRequest{
		Date:               "2025-03-10",
		CashServices:       5000,
		ElectronicServices: 5000,
	})
	if !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected mismatched split to be rejected, got %v", err)
	}
}

func TestReadIncomeRecomputesServiceRevenue(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(1), ElectronicCount: i64(0)},
		},
	}); err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}
	if err := svc.WriteIncome(ctx, domain.IncomeWriteRequest{
		Date:         "2025-03-10",
		CashServices: 12000,
	}); err != nil {
		t.Fatalf("write income failed: %v", err)
	}

	// Editing a worker entry after the income write makes the stored
	// service_revenue stale; reads must recompute it.
	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(3), ElectronicCount: i64(0)},
		},
	}); err != nil {
		t.Fatalf("rewrite worker entry failed: %v", err)
	}

	income, err := svc.ReadIncome(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("read income failed: %v", err)
	}
	if income.ServiceRevenue != 36000 {
		t.Fatalf("expected recomputed revenue 36000, got %d", income.ServiceRevenue)
	}
}

func TestComputeTotalsZeroForAbsentDate(t *testing.T) {
	svc, _ := newTestService()

	totals, err := svc.ComputeTotals(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("expected zero totals for absent date, got error: %v", err)
	}
	if totals != (domain.Totals{}) {
		t.Fatalf("expected all-zero totals, got %+v", totals)
	}
}

func TestComputeTotalsEndToEnd(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(2), ElectronicCount: i64(1)},
		},
		SpecialCuts:    []domain.SpecialCut{{Amount: 5000}, {Amount: 3000}},
		CashWithdrawal: 4000,
	}); err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}
	if err := svc.WriteExpenses(ctx, domain.ExpenseWriteRequest{
		Date:       "2025-03-10",
		Cash:       domain.ExpenseBreakdown{Supplies: 1000},
		Electronic: domain.ExpenseBreakdown{Miscellaneous: 500},
	}); err != nil {
		t.Fatalf("write expenses failed: %v", err)
	}

	totals, err := svc.ComputeTotals(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("compute totals failed: %v", err)
	}
	if totals.Services != 36000 || totals.Special != 8000 {
		t.Fatalf("unexpected service/special totals: %+v", totals)
	}
	if totals.CashWithdrawals != 4000 || totals.Expenses != 1500 {
		t.Fatalf("unexpected withdrawal/expense totals: %+v", totals)
	}
	want := int64(36000 + 8000 - 4000 - 1500)
	if totals.Grand != want {
		t.Fatalf("expected grand total %d, got %d", want, totals.Grand)
	}
}

func TestNegativeAmountsClampedAtWriteBoundary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{
		Worker: "A",
		Services: []domain.ServiceLine{
			{Kind: domain.ServicePlain, CashCount: i64(-2), ElectronicCount: i64(1)},
		},
		SpecialCuts:          []domain.SpecialCut{{Amount: -5000}},
		CashWithdrawal:       -100,
		ElectronicWithdrawal: -200,
	}); err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}

	totals, err := svc.ComputeTotals(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("compute totals failed: %v", err)
	}
	if totals.Services != 12000 || totals.Special != 0 {
		t.Fatalf("negative inputs not clamped: %+v", totals)
	}
	if totals.CashWithdrawals != 0 || totals.ElectronicWithdrawals != 0 {
		t.Fatalf("negative withdrawals not clamped: %+v", totals)
	}
}

func TestWriteWorkerEntryRejectsMalformedLine(t *testing.T) {
	svc, _ := newTestService()

	err := svc.WriteWorkerEntry(context.Background(), "2025-03-10", domain.WorkerEntry{
		Worker:   "A",
		Services: []domain.ServiceLine{{Kind: domain.ServicePlain}},
	})
	if !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected malformed line to be rejected, got %v", err)
	}
}

func TestWriteRejectsBadDateKey(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, date := range []string{"2025-3-10", "not-a-date", ""} {
		if err := svc.WriteWorkerEntry(ctx, date, domain.WorkerEntry{Worker: "A"}); !errors.Is(err, store.ErrInvalidRecord) {
			t.Fatalf("expected date %q to be rejected, got %v", date, err)
		}
		if err := svc.DeleteDayRecord(ctx, date); !errors.Is(err, store.ErrInvalidRecord) {
			t.Fatalf("expected delete of %q to be rejected, got %v", date, err)
		}
	}
}

func TestDeleteRemovesAllSections(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.WriteWorkerEntry(ctx, "2025-03-10", domain.WorkerEntry{Worker: "A"}); err != nil {
		t.Fatalf("write worker entry failed: %v", err)
	}
	if err := svc.WriteExpenses(ctx, domain.ExpenseWriteRequest{Date: "2025-03-10"}); err != nil {
		t.Fatalf("write expenses failed: %v", err)
	}

	if err := svc.DeleteDayRecord(ctx, "2025-03-10"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	records, err := svc.ListDayRecords(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty ledger after delete, got %+v", records)
	}
}

func TestListDayRecordsSortedDateDescending(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, date := range []string{"2025-03-09", "2025-03-11", "2025-03-10"} {
		if err := svc.WriteWorkerEntry(ctx, date, domain.WorkerEntry{Worker: "A"}); err != nil {
			t.Fatalf("write for %s failed: %v", date, err)
		}
	}

	records, err := svc.ListDayRecords(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	want := []string{"2025-03-11", "2025-03-10", "2025-03-09"}
	for i, date := range want {
		if records[i].Date != date {
			t.Fatalf("expected order %v, got %+v", want, records)
		}
	}
}

func TestAddWorkerRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if err := svc.AddWorker(ctx, "A"); err != nil {
		t.Fatalf("add worker failed: %v", err)
	}
	if err := svc.AddWorker(ctx, "A"); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected duplicate worker to be rejected, got %v", err)
	}
}

func TestRecordCutRequiresRosterMembership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RecordCut(ctx, domain.CutRequest{
		Kind:          domain.ServicePlain,
		Worker:        "Ghost",
		PaymentMethod: domain.PaymentCash,
	})
	if !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected unknown worker to be rejected, got %v", err)
	}

	if err := svc.AddWorker(ctx, "A"); err != nil {
		t.Fatalf("add worker failed: %v", err)
	}
	cut, err := svc.RecordCut(ctx, domain.CutRequest{
		Kind:          domain.ServiceCombo,
		Worker:        "A",
		PaymentMethod: domain.PaymentElectronic,
	})
	if err != nil {
		t.Fatalf("record cut failed: %v", err)
	}
	if cut.ID == "" || cut.At.IsZero() {
		t.Fatalf("cut event missing id or timestamp: %+v", cut)
	}

	cuts, err := svc.ListCuts(ctx)
	if err != nil {
		t.Fatalf("list cuts failed: %v", err)
	}
	if len(cuts) != 1 || cuts[0].ID != cut.ID {
		t.Fatalf("cut not persisted: %+v", cuts)
	}
}

func TestSetPricesRejectsNonPositive(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.SetPrices(context.Background(), domain.Prices{Plain: 0, Combo: 13000}); !errors.Is(err, store.ErrInvalidRecord) {
		t.Fatalf("expected non-positive price to be rejected, got %v", err)
	}
}
