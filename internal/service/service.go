package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"ogbarber/backend/internal/dateutil"
	"ogbarber/backend/internal/domain"
	"ogbarber/backend/internal/ledger"
	"ogbarber/backend/internal/store"
)

// Service orchestrates the ledger lifecycle on top of a repository: it
// validates and clamps input at the write boundary, merges sub-section
// writes into the day record, and derives totals on read. The aggregation
// engine below it assumes non-negative amounts, so all clamping happens
// here and only here.
type Service struct {
	repo store.Repository
}

func New(repo store.Repository) *Service {
	return &Service{repo: repo}
}

// ListDayRecords returns every day record sorted by date descending. The
// store gives no order guarantee, so the sort is explicit.
func (s *Service) ListDayRecords(ctx context.Context) ([]domain.DayRecord, error) {
	records, err := s.repo.GetAllDayRecords(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})
	return records, nil
}

// UpsertDayRecord validates and stores a full day record, replacing any
// existing record with the same date.
func (s *Service) UpsertDayRecord(ctx context.Context, rec domain.DayRecord) error {
	if !dateutil.IsValidKey(rec.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	for i := range rec.Workers {
		entry, err := s.prepareWorkerEntry(rec.Date, rec.Workers[i])
		if err != nil {
			return err
		}
		rec.Workers[i] = entry
	}
	if rec.Income != nil {
		income := clampIncome(*rec.Income)
		rec.Income = &income
	}
	if rec.Expenses != nil {
		expenses := clampExpenses(*rec.Expenses)
		rec.Expenses = &expenses
	}

	return s.repo.UpsertDayRecord(ctx, rec)
}

// DeleteDayRecord removes the whole record for a date, all sections
// included. Deleting an absent date is a no-op.
func (s *Service) DeleteDayRecord(ctx context.Context, date string) error {
	if !dateutil.IsValidKey(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}
	return s.repo.DeleteDayRecord(ctx, date)
}

// ComputeTotals aggregates one day's record. A date with no record is a
// normal state and yields all-zero totals, not an error.
func (s *Service) ComputeTotals(ctx context.Context, date string) (domain.Totals, error) {
	if !dateutil.IsValidKey(date) {
		return domain.Totals{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	records, err := s.repo.GetAllDayRecords(ctx)
	if err != nil {
		return domain.Totals{}, err
	}

	rec, ok := ledger.FindDayRecord(records, date)
	if !ok {
		return domain.Totals{}, nil
	}

	prices, err := s.repo.GetPrices(ctx)
	if err != nil {
		return domain.Totals{}, err
	}

	return ledger.Aggregate(rec, prices)
}

// WriteWorkerEntry writes one worker's entry for a date, replacing an
// existing entry for the same worker in place or appending a new one. The
// other sections of the day record are left untouched.
func (s *Service) WriteWorkerEntry(ctx context.Context, date string, entry domain.WorkerEntry) error {
	if !dateutil.IsValidKey(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	entry.Date = date
	prepared, err := s.prepareWorkerEntry(date, entry)
	if err != nil {
		return err
	}

	return s.writeSection(ctx, date, ledger.SectionValue{Worker: &prepared})
}

// WriteIncome writes the day's income section. The service revenue is
// recomputed from the worker entries, and the cash/electronic split must
// sum to it; a stale or mistyped split is rejected rather than stored.
func (s *Service) WriteIncome(ctx context.Context, req domain.IncomeWriteRequest) error {
	if !dateutil.IsValidKey(req.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	revenue, err := s.serviceRevenue(ctx, req.Date)
	if err != nil {
		return err
	}

	income := clampIncome(domain.IncomeEntry{
		CashServices:       req.CashServices,
		ElectronicServices: req.ElectronicServices,
		Supplies:           req.Supplies,
		ColorService:       req.ColorService,
		Beverages:          req.Beverages,
	})
	if income.CashServices+income.ElectronicServices != revenue {
		return fmt.Errorf("%w: cash services (%d) + electronic services (%d) must equal the day's service revenue (%d)",
			store.ErrInvalidRecord, income.CashServices, income.ElectronicServices, revenue)
	}
	income.ServiceRevenue = revenue

	return s.writeSection(ctx, req.Date, ledger.SectionValue{Income: &income})
}

// WriteExpenses writes the day's expense section.
func (s *Service) WriteExpenses(ctx context.Context, req domain.ExpenseWriteRequest) error {
	if !dateutil.IsValidKey(req.Date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	expenses := clampExpenses(domain.ExpenseEntry{Cash: req.Cash, Electronic: req.Electronic})
	return s.writeSection(ctx, req.Date, ledger.SectionValue{Expenses: &expenses})
}

// ReadIncome returns the day's income section with the derived service
// revenue freshly recomputed; the stored value is never trusted. An absent
// record or section yields zeros.
func (s *Service) ReadIncome(ctx context.Context, date string) (domain.IncomeEntry, error) {
	if !dateutil.IsValidKey(date) {
		return domain.IncomeEntry{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	records, err := s.repo.GetAllDayRecords(ctx)
	if err != nil {
		return domain.IncomeEntry{}, err
	}

	rec, ok := ledger.FindDayRecord(records, date)
	if !ok {
		return domain.IncomeEntry{}, nil
	}

	prices, err := s.repo.GetPrices(ctx)
	if err != nil {
		return domain.IncomeEntry{}, err
	}
	revenue, err := ledger.ServiceRevenue(rec, prices)
	if err != nil {
		return domain.IncomeEntry{}, err
	}

	income := domain.IncomeEntry{}
	if rec.Income != nil {
		income = *rec.Income
	}
	income.ServiceRevenue = revenue
	return income, nil
}

// ReadExpenses returns the day's expense section, zeros when absent.
func (s *Service) ReadExpenses(ctx context.Context, date string) (domain.ExpenseEntry, error) {
	if !dateutil.IsValidKey(date) {
		return domain.ExpenseEntry{}, fmt.Errorf("%w: date must be YYYY-MM-DD", store.ErrInvalidRecord)
	}

	records, err := s.repo.GetAllDayRecords(ctx)
	if err != nil {
		return domain.ExpenseEntry{}, err
	}

	rec, ok := ledger.FindDayRecord(records, date)
	if !ok || rec.Expenses == nil {
		return domain.ExpenseEntry{}, nil
	}
	return *rec.Expenses, nil
}

// writeSection is the create-if-absent / merge-if-present lifecycle shared
// by all sub-section writes: load the current day record, merge only the
// named section into it and upsert the result. Everything else in the
// record rides along unchanged.
func (s *Service) writeSection(ctx context.Context, date string, val ledger.SectionValue) error {
	records, err := s.repo.GetAllDayRecords(ctx)
	if err != nil {
		return err
	}

	rec, ok := ledger.FindDayRecord(records, date)
	if !ok {
		rec = ledger.NewDayRecord(date)
	}

	return s.repo.UpsertDayRecord(ctx, ledger.MergeSection(rec, val))
}

// serviceRevenue computes the derived service revenue for a date, zero when
// no record exists yet.
func (s *Service) serviceRevenue(ctx context.Context, date string) (int64, error) {
	records, err := s.repo.GetAllDayRecords(ctx)
	if err != nil {
		return 0, err
	}

	rec, ok := ledger.FindDayRecord(records, date)
	if !ok {
		return 0, nil
	}

	prices, err := s.repo.GetPrices(ctx)
	if err != nil {
		return 0, err
	}
	return ledger.ServiceRevenue(rec, prices)
}

// prepareWorkerEntry validates a worker entry at the write boundary: the
// worker must be named, every service line must normalize, and negative
// amounts are clamped to zero before anything is stored.
func (s *Service) prepareWorkerEntry(date string, entry domain.WorkerEntry) (domain.WorkerEntry, error) {
	entry.Worker = strings.TrimSpace(entry.Worker)
	if entry.Worker == "" {
		return domain.WorkerEntry{}, fmt.Errorf("%w: worker name required", store.ErrInvalidRecord)
	}
	entry.Date = date

	services := make([]domain.ServiceLine, len(entry.Services))
	for i, line := range entry.Services {
		clamped := clampServiceLine(line)
		if _, err := ledger.Normalize(clamped); err != nil {
			return domain.WorkerEntry{}, fmt.Errorf("%w: worker %q line %d: %v",
				store.ErrInvalidRecord, entry.Worker, i, err)
		}
		services[i] = clamped
	}
	entry.Services = services

	cuts := make([]domain.SpecialCut, len(entry.SpecialCuts))
	for i, cut := range entry.SpecialCuts {
		cuts[i] = domain.SpecialCut{Amount: clampNonNegative(cut.Amount)}
	}
	if len(cuts) == 0 {
		cuts = nil
	}
	entry.SpecialCuts = cuts

	entry.CashWithdrawal = clampNonNegative(entry.CashWithdrawal)
	entry.ElectronicWithdrawal = clampNonNegative(entry.ElectronicWithdrawal)

	return entry, nil
}

func (s *Service) ListWorkers(ctx context.Context) ([]string, error) {
	return s.repo.ListWorkers(ctx)
}

// AddWorker adds a name to the roster. Duplicates are rejected so the
// replace-or-append merge of worker entries stays unambiguous.
func (s *Service) AddWorker(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: worker name required", store.ErrInvalidRecord)
	}

	existing, err := s.repo.ListWorkers(ctx)
	if err != nil {
		return err
	}
	for _, worker := range existing {
		if worker == name {
			return fmt.Errorf("%w: worker %q already on the roster", store.ErrInvalidRecord, name)
		}
	}

	return s.repo.AddWorker(ctx, name)
}

func (s *Service) RemoveWorker(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: worker name required", store.ErrInvalidRecord)
	}
	return s.repo.RemoveWorker(ctx, name)
}

// HasWorker reports whether name is on the roster. Handlers use it to
// validate a worker before a worker-entry write; the storage layer itself
// treats worker names as opaque.
func (s *Service) HasWorker(ctx context.Context, name string) (bool, error) {
	workers, err := s.repo.ListWorkers(ctx)
	if err != nil {
		return false, err
	}
	for _, worker := range workers {
		if worker == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) GetPrices(ctx context.Context) (domain.Prices, error) {
	return s.repo.GetPrices(ctx)
}

func (s *Service) SetPrices(ctx context.Context, prices domain.Prices) error {
	if prices.Plain <= 0 || prices.Combo <= 0 {
		return fmt.Errorf("%w: prices must be positive", store.ErrInvalidRecord)
	}
	return s.repo.SetPrices(ctx, prices)
}

// RecordCut appends one quick-entry service event. The worker must be on
// the roster; the event log is append-only and never rewritten.
func (s *Service) RecordCut(ctx context.Context, req domain.CutRequest) (domain.CutEvent, error) {
	if !req.Kind.Valid() {
		return domain.CutEvent{}, fmt.Errorf("%w: unknown service kind %q", store.ErrInvalidRecord, req.Kind)
	}
	if req.PaymentMethod != domain.PaymentCash && req.PaymentMethod != domain.PaymentElectronic {
		return domain.CutEvent{}, fmt.Errorf("%w: unknown payment method %q", store.ErrInvalidRecord, req.PaymentMethod)
	}

	worker := strings.TrimSpace(req.Worker)
	if worker == "" {
		return domain.CutEvent{}, fmt.Errorf("%w: worker name required", store.ErrInvalidRecord)
	}
	onRoster, err := s.HasWorker(ctx, worker)
	if err != nil {
		return domain.CutEvent{}, err
	}
	if !onRoster {
		return domain.CutEvent{}, fmt.Errorf("%w: worker %q is not on the roster", store.ErrInvalidRecord, worker)
	}

	cut := domain.CutEvent{
		ID:            newEventID("cut"),
		Kind:          req.Kind,
		Worker:        worker,
		PaymentMethod: req.PaymentMethod,
		At:            time.Now().UTC(),
	}
	if err := s.repo.AppendCut(ctx, cut); err != nil {
		return domain.CutEvent{}, err
	}
	return cut, nil
}

func (s *Service) ListCuts(ctx context.Context) ([]domain.CutEvent, error) {
	return s.repo.ListCuts(ctx)
}

func (s *Service) StoreStats() domain.StoreStats {
	return s.repo.Stats()
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampCount(v *int64) *int64 {
	if v == nil {
		return nil
	}
	clamped := clampNonNegative(*v)
	return &clamped
}

func clampServiceLine(line domain.ServiceLine) domain.ServiceLine {
	line.CashCount = clampCount(line.CashCount)
	line.ElectronicCount = clampCount(line.ElectronicCount)
	line.Count = clampCount(line.Count)
	line.UnitPrice = clampCount(line.UnitPrice)
	return line
}

func clampIncome(income domain.IncomeEntry) domain.IncomeEntry {
	income.CashServices = clampNonNegative(income.CashServices)
	income.ElectronicServices = clampNonNegative(income.ElectronicServices)
	income.Supplies = clampNonNegative(income.Supplies)
	income.ColorService = clampNonNegative(income.ColorService)
	income.Beverages = clampNonNegative(income.Beverages)
	return income
}

func clampExpenses(expenses domain.ExpenseEntry) domain.ExpenseEntry {
	expenses.Cash.Supplies = clampNonNegative(expenses.Cash.Supplies)
	expenses.Cash.Miscellaneous = clampNonNegative(expenses.Cash.Miscellaneous)
	expenses.Electronic.Supplies = clampNonNegative(expenses.Electronic.Supplies)
	expenses.Electronic.Miscellaneous = clampNonNegative(expenses.Electronic.Miscellaneous)
	return expenses
}

func newEventID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
