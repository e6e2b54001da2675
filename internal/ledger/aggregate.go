package ledger

import (
	"fmt"

	"ogbarber/backend/internal/domain"
)

// MalformedDataError reports a day record whose stored data cannot be
// aggregated. Worker and Line identify the offending service line so the
// bad entry can be found and fixed; aggregation never partially sums around
// it.
type MalformedDataError struct {
	Date   string
	Worker string
	Line   int
	Reason string
}

func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("malformed ledger data on %s: worker %q line %d: %s",
		e.Date, e.Worker, e.Line, e.Reason)
}

// Aggregate folds one day record into its reconciled totals.
//
// Lines carrying a frozen unit price use it even when current prices have
// since changed; that rule is what keeps replaying aggregation over stored
// data stable over time. Amounts are assumed non-negative here; clamping
// happens at the write boundary, and re-clamping would mask upstream bugs.
func Aggregate(rec domain.DayRecord, prices domain.Prices) (domain.Totals, error) {
	var t domain.Totals

	for _, w := range rec.Workers {
		for i, line := range w.Services {
			n, err := Normalize(line)
			if err != nil {
				return domain.Totals{}, &MalformedDataError{
					Date:   rec.Date,
					Worker: w.Worker,
					Line:   i,
					Reason: err.Error(),
				}
			}

			unit := int64(0)
			if n.UnitPrice != nil {
				unit = *n.UnitPrice
			} else {
				current, ok := prices.For(n.Kind)
				if !ok {
					return domain.Totals{}, &MalformedDataError{
						Date:   rec.Date,
						Worker: w.Worker,
						Line:   i,
						Reason: fmt.Sprintf("no current price for kind %q", n.Kind),
					}
				}
				unit = current
			}

			t.Services += (n.CashCount + n.ElectronicCount) * unit
		}

		for _, cut := range w.SpecialCuts {
			t.Special += cut.Amount
		}

		t.CashWithdrawals += w.CashWithdrawal
		t.ElectronicWithdrawals += w.ElectronicWithdrawal
	}

	if rec.Income != nil {
		t.IncomeExtras = rec.Income.Extras()
	}
	if rec.Expenses != nil {
		t.Expenses = rec.Expenses.Total()
	}

	t.Grand = t.Services + t.Special -
		t.CashWithdrawals - t.ElectronicWithdrawals +
		t.IncomeExtras - t.Expenses

	return t, nil
}

// ServiceRevenue returns the derived service revenue for a day record:
// priced services plus flat specials. This is the value the income section
// reports as service_revenue, recomputed on every read.
func ServiceRevenue(rec domain.DayRecord, prices domain.Prices) (int64, error) {
	t, err := Aggregate(rec, prices)
	if err != nil {
		return 0, err
	}
	return t.Services + t.Special, nil
}
