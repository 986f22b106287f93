package finance

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Expense is one recorded expense.
type Expense struct {
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Ledger holds expenses and per-category budgets. It is safe for
// concurrent use. Categories are case-insensitive.
type Ledger struct {
	mu       sync.Mutex
	expenses []Expense
	budgets  map[string]float64
	now      func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{budgets: make(map[string]float64), now: time.Now}
}

// ErrInvalidAmount is returned for negative or non-finite amounts.
var ErrInvalidAmount = errors.New("amount must be a non-negative number")

func normalize(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func validAmount(v float64) bool {
	return v >= 0 && v < 1e15
}

// AddExpense records an expense dated today.
func (l *Ledger) AddExpense(amount float64, category, description string) (Expense, error) {
	if !validAmount(amount) {
		return Expense{}, ErrInvalidAmount
	}
	if normalize(category) == "" {
		return Expense{}, errors.New("category is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e := Expense{
		Amount:      amount,
		Category:    normalize(category),
		Description: description,
		Date:        l.now(),
	}
	l.expenses = append(l.expenses, e)
	return e, nil
}

// SetBudget sets the budget for a category, replacing any previous one.
func (l *Ledger) SetBudget(category string, amount float64) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	if normalize(category) == "" {
		return errors.New("category is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.budgets[normalize(category)] = amount
	return nil
}

// Remaining reports the budget, the amount spent and what is left for a
// category. ok is false when no budget is set.
func (l *Ledger) Remaining(category string) (budget, spent, remaining float64, ok bool) {
	category = normalize(category)

	l.mu.Lock()
	defer l.mu.Unlock()

	budget, ok = l.budgets[category]
	if !ok {
		return 0, 0, 0, false
	}
	for _, e := range l.expenses {
		if e.Category == category {
			spent += e.Amount
		}
	}
	return budget, spent, budget - spent, true
}

// Total returns the sum of all expenses.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total float64
	for _, e := range l.expenses {
		total += e.Amount
	}
	return total
}

// ByCategory returns spending per category.
func (l *Ledger) ByCategory() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]float64)
	for _, e := range l.expenses {
		out[e.Category] += e.Amount
	}
	return out
}

// Expenses returns a copy of the recorded expenses in order.
func (l *Ledger) Expenses() []Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.expenses)
}

// Summary renders total spending with a per-category breakdown.
func (l *Ledger) Summary() string {
	byCat := l.ByCategory()
	if len(byCat) == 0 {
		return "No expenses recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total spent: $%.2f", l.Total())
	for _, c := range slices.Sorted(maps.Keys(byCat)) {
		fmt.Fprintf(&b, "\n- %s: $%.2f", c, byCat[c])
	}
	return b.String()
}
