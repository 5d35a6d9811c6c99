package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spice-must-talk/internal/analytics"
)

func TestExpenseBuilder(t *testing.T) {
	expenses := NewExpenseBuilder(2025, time.November).
		With("4.50", "coffee", 5).
		In(2025, time.December).
		With("12", "lunch", 1).
		Build()

	require.Len(t, expenses, 2)
	assert.Equal(t, "2025-11", expenses[0].MonthKey())
	assert.Equal(t, "2025-12", expenses[1].MonthKey())
	assert.Equal(t, "$4.50", analytics.FormatMoney(expenses[0].Amount))
}

func TestSetupTestLedger(t *testing.T) {
	ledger := SetupTestLedger(t, Clock(2025, time.November, 20), TwoMonths()...)

	assert.Equal(t, "2025-11", ledger.Storage.ActiveMonth())
	assert.Len(t, ledger.MustExpenses("2025-10"), 1)
	november := ledger.MustExpenses("2025-11")
	require.Len(t, november, 4)
	assert.Equal(t, "$1000.00", analytics.FormatMoney(analytics.Total(november)))
	assert.Empty(t, ledger.MustExchanges("nobody"))
}
