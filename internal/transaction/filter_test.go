package transaction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
)

func TestParseListFilter(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		f, err := transaction.ParseListFilter("", "", "")
		require.NoError(t, err)
		assert.Equal(t, transaction.ListFilter{}, f)
	})

	t.Run("All fields", func(t *testing.T) {
		f, err := transaction.ParseListFilter("income", "2024-02-01", "2024-02-29")
		require.NoError(t, err)

		require.NotNil(t, f.Type)
		assert.Equal(t, transaction.TypeIncome, *f.Type)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)

		lastMoment := &transaction.Transaction{Type: transaction.TypeIncome, Date: time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)}
		nextDay := &transaction.Transaction{Type: transaction.TypeIncome, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}

		assert.True(t, f.Match(lastMoment))
		assert.False(t, f.Match(nextDay))
	})

	t.Run("Timestamp end is exact", func(t *testing.T) {
		f, err := transaction.ParseListFilter("", "", "2024-02-29T12:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC), *f.EndDate)
	})

	t.Run("Violations", func(t *testing.T) {
		_, err := transaction.ParseListFilter("transfer", "yesterday", "2024-13-01")

		var verr *transaction.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("type"))
		assert.True(t, verr.Has("start_date"))
		assert.True(t, verr.Has("end_date"))
	})

	t.Run("Inverted range", func(t *testing.T) {
		_, err := transaction.ParseListFilter("", "2024-03-01", "2024-02-01")

		var verr *transaction.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.Has("end_date"))
	})
}
