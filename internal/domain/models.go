package domain

import "time"

// ServiceKind identifies one of the two priced service types offered by the
// shop. Flat-amount specials are not a kind; they carry their own amount.
type ServiceKind string

const (
	ServicePlain ServiceKind = "plain"
	ServiceCombo ServiceKind = "combo"
)

func (k ServiceKind) Valid() bool {
	return k == ServicePlain || k == ServiceCombo
}

// Payment methods accepted for quick-cut events and income splits.
const (
	PaymentCash       = "cash"
	PaymentElectronic = "electronic"
)

// Prices holds the current unit price for each service kind, in whole
// currency units.
type Prices struct {
	Plain int64 `json:"plain"`
	Combo int64 `json:"combo"`
}

// DefaultPrices are written to the price store on first read when no prices
// have been configured yet.
var DefaultPrices = Prices{Plain: 12000, Combo: 13000}

func (p Prices) For(kind ServiceKind) (int64, bool) {
	switch kind {
	case ServicePlain:
		return p.Plain, true
	case ServiceCombo:
		return p.Combo, true
	default:
		return 0, false
	}
}

// ServiceLine is one service row inside a worker entry. Three historical
// shapes coexist in stored data and are told apart by which fields are set:
//
//  1. cash_count + electronic_count, no unit_price: counts split by payment
//     method, priced at the current configured price;
//  2. count + unit_price: a frozen price captured at write time, never
//     recomputed from current configuration;
//  3. count alone: oldest shape, equivalent to (1) with everything in cash.
//
// Pointer fields keep absence distinguishable from an explicit zero.
type ServiceLine struct {
	Kind            ServiceKind `json:"kind"`
	CashCount       *int64      `json:"cash_count,omitempty"`
	ElectronicCount *int64      `json:"electronic_count,omitempty"`
	Count           *int64      `json:"count,omitempty"`
	UnitPrice       *int64      `json:"unit_price,omitempty"`
}

// NormalizedLine is the single canonical shape the aggregation engine
// consumes. UnitPrice is nil when the current configured price applies.
type NormalizedLine struct {
	Kind            ServiceKind
	CashCount       int64
	ElectronicCount int64
	UnitPrice       *int64
}

// SpecialCut is a flat-amount transaction outside the quantity-times-price
// scheme (a deal, a house call, a favor priced on the spot).
type SpecialCut struct {
	Amount int64 `json:"amount"`
}

// WorkerEntry records one worker's activity for one day.
type WorkerEntry struct {
	Date                 string        `json:"date"`
	Worker               string        `json:"worker"`
	Services             []ServiceLine `json:"services"`
	SpecialCuts          []SpecialCut  `json:"special_cuts,omitempty"`
	CashWithdrawal       int64         `json:"cash_withdrawal,omitempty"`
	ElectronicWithdrawal int64         `json:"electronic_withdrawal,omitempty"`
}

// IncomeEntry is the day's income section. ServiceRevenue is derived from
// the worker entries and recomputed on every read; the stored value is never
// trusted. CashServices and ElectronicServices record how that revenue
// splits by payment method and must sum to it.
type IncomeEntry struct {
	ServiceRevenue     int64 `json:"service_revenue"`
	CashServices       int64 `json:"cash_services"`
	ElectronicServices int64 `json:"electronic_services"`
	Supplies           int64 `json:"supplies"`
	ColorService       int64 `json:"color_service"`
	Beverages          int64 `json:"beverages"`
}

// Extras returns the income amounts that are not derived from services.
func (e IncomeEntry) Extras() int64 {
	return e.Supplies + e.ColorService + e.Beverages
}

type ExpenseBreakdown struct {
	Supplies      int64 `json:"supplies"`
	Miscellaneous int64 `json:"miscellaneous"`
}

// ExpenseEntry is the day's expense section, split by payment method.
type ExpenseEntry struct {
	Cash       ExpenseBreakdown `json:"cash"`
	Electronic ExpenseBreakdown `json:"electronic"`
}

func (e ExpenseEntry) Total() int64 {
	return e.Cash.Supplies + e.Cash.Miscellaneous +
		e.Electronic.Supplies + e.Electronic.Miscellaneous
}

// DayRecord aggregates all financial activity for one calendar date. Date is
// the primary key (YYYY-MM-DD) and is immutable once the record exists.
// Income and Expenses are optional; absence means the section was never
// written for that day.
type DayRecord struct {
	Date     string        `json:"date"`
	Workers  []WorkerEntry `json:"workers"`
	Income   *IncomeEntry  `json:"income,omitempty"`
	Expenses *ExpenseEntry `json:"expenses,omitempty"`
}

// Totals is the reconciled set of daily totals produced by aggregation.
type Totals struct {
	Services              int64 `json:"services_total"`
	Special               int64 `json:"special_total"`
	CashWithdrawals       int64 `json:"cash_withdrawals"`
	ElectronicWithdrawals int64 `json:"electronic_withdrawals"`
	IncomeExtras          int64 `json:"income_extras"`
	Expenses              int64 `json:"expenses_total"`
	Grand                 int64 `json:"grand_total"`
}

// CutEvent is one entry in the quick-entry service log: a single service
// recorded the moment it happens, independent of the day ledger.
type CutEvent struct {
	ID            string      `json:"id"`
	Kind          ServiceKind `json:"kind"`
	Worker        string      `json:"worker"`
	PaymentMethod string      `json:"payment_method"`
	At            time.Time   `json:"at"`
}

// StoreStats exposes operational counters from a repository implementation.
type StoreStats struct {
	DecodeFailures uint64 `json:"decode_failures"`
}

// IncomeWriteRequest is the API payload for writing a day's income section.
// ServiceRevenue is intentionally absent: it is always derived server side.
type IncomeWriteRequest struct {
	Date               string `json:"date"`
	CashServices       int64  `json:"cash_services"`
	ElectronicServices int64  `json:"electronic_services"`
	Supplies           int64  `json:"supplies"`
	ColorService       int64  `json:"color_service"`
	Beverages          int64  `json:"beverages"`
}

// ExpenseWriteRequest is the API payload for writing a day's expense section.
type ExpenseWriteRequest struct {
	Date       string           `json:"date"`
	Cash       ExpenseBreakdown `json:"cash"`
	Electronic ExpenseBreakdown `json:"electronic"`
}

// CutRequest is the API payload for appending a quick-cut event.
type CutRequest struct {
	Kind          ServiceKind `json:"kind"`
	Worker        string      `json:"worker"`
	PaymentMethod string      `json:"payment_method"`
}

// AddWorkerRequest is the API payload for adding a roster entry.
type AddWorkerRequest struct {
	Name string `json:"name"`
}
