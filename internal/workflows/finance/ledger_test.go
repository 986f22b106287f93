package finance

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	l := NewLedger()
	l.now = func() time.Time { return day }

	e, err := l.AddExpense(20, " Food ", "pizza")
	require.NoError(t, err)
	assert.Equal(t, Expense{Amount: 20, Category: "food", Description: "pizza", Date: day}, e)

	_, err = l.AddExpense(5, "transport", "bus")
	require.NoError(t, err)

	_, err = l.AddExpense(-3, "food", "refund")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.AddExpense(3, "  ", "nothing")
	assert.Error(t, err)

	_, _, _, ok := l.Remaining("food")
	assert.False(t, ok)

	require.NoError(t, l.SetBudget("FOOD", 100))
	require.NoError(t, l.SetBudget("food", 50))
	budget, spent, left, ok := l.Remaining("food")
	require.True(t, ok)
	assert.Equal(t, []float64{50, 20, 30}, []float64{budget, spent, left})

	assert.InDelta(t, 25, l.Total(), 1e-9)
	assert.Equal(t, map[string]float64{"food": 20, "transport": 5}, l.ByCategory())
	assert.Equal(t, "Total spent: $25.00\n- food: $20.00\n- transport: $5.00", l.Summary())

	got := l.Expenses()
	got[0].Amount = 999
	assert.InDelta(t, 20, l.Expenses()[0].Amount, 1e-9)
}

func TestLedger_Concurrent(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.AddExpense(1, "misc", "x")
			_ = l.Summary()
		}()
	}
	wg.Wait()
	assert.InDelta(t, 50, l.Total(), 1e-9)
}
