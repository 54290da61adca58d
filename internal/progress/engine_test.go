package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectorflow/server/internal/entities"
)

func intPtr(v int) *int { return &v }

func readingRecord(current, total int) *entities.BookRecord {
	return &entities.BookRecord{
		ListName:    entities.ListReading,
		Title:       "Dune",
		Author:      "Frank Herbert",
		CurrentPage: intPtr(current),
		TotalPages:  intPtr(total),
		DateAdded:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAdvanceProgress(t *testing.T) {
	engine := NewEngine(Options{})
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("positive delta is logged", func(t *testing.T) {
		record := readingRecord(50, 400)

		entries, err := engine.AdvanceProgress(record, 80, nil, now)
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, 30, entries[0].PagesAdvanced)
		assert.Equal(t, now, entries[0].Date)
		assert.Equal(t, 80, record.CurrentPageOrZero())
		require.NotNil(t, record.LastDateRead)
		assert.Equal(t, now, *record.LastDateRead)
	})

	t.Run("zero delta is skipped by default", func(t *testing.T) {
		record := readingRecord(50, 400)

		entries, err := engine.AdvanceProgress(record, 50, nil, now)
		require.NoError(t, err)

		assert.Empty(t, entries)
		assert.Equal(t, 50, record.CurrentPageOrZero())
		require.NotNil(t, record.LastDateRead)
	})

	t.Run("negative delta is skipped by default", func(t *testing.T) {
		record := readingRecord(50, 400)

		entries, err := engine.AdvanceProgress(record, 30, nil, now)
		require.NoError(t, err)

		assert.Empty(t, entries)
		assert.Equal(t, 30, record.CurrentPageOrZero())
	})

	t.Run("non-positive deltas logged when enabled", func(t *testing.T) {
		permissive := NewEngine(Options{RecordNonPositiveDeltas: true})
		record := readingRecord(50, 400)

		entries, err := permissive.AdvanceProgress(record, 30, nil, now)
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, -20, entries[0].PagesAdvanced)
	})

	t.Run("updates page total alongside", func(t *testing.T) {
		record := readingRecord(50, 400)

		entries, err := engine.AdvanceProgress(record, 60, intPtr(420), now)
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, 420, record.TotalPagesOrZero())
	})

	t.Run("unset current page counts from zero", func(t *testing.T) {
		record := readingRecord(0, 400)
		record.CurrentPage = nil

		entries, err := engine.AdvanceProgress(record, 25, nil, now)
		require.NoError(t, err)

		require.Len(t, entries, 1)
		assert.Equal(t, 25, entries[0].PagesAdvanced)
	})

	t.Run("rejects page beyond total", func(t *testing.T) {
		record := readingRecord(50, 400)

		_, err := engine.AdvanceProgress(record, 500, nil, now)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "current_page", verr.Field)
		assert.Equal(t, 50, record.CurrentPageOrZero())
	})

	t.Run("rejects negative page", func(t *testing.T) {
		record := readingRecord(50, 400)

		_, err := engine.AdvanceProgress(record, -1, nil, now)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("allows any page when total unknown", func(t *testing.T) {
		record := readingRecord(50, 0)
		record.TotalPages = nil

		entries, err := engine.AdvanceProgress(record, 900, nil, now)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 850, entries[0].PagesAdvanced)
	})
}

func TestAdvanceByPercentage(t *testing.T) {
	engine := NewEngine(Options{})
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("rounds to the nearest page", func(t *testing.T) {
		record := readingRecord(0, 333)

		entries, err := engine.AdvanceByPercentage(record, 50, now)
		require.NoError(t, err)

		require.Len(t, entries, 1)
		// 50% of 333 pages rounds to 167
		assert.Equal(t, 167, record.CurrentPageOrZero())
	})

	t.Run("100 percent reaches the last page", func(t *testing.T) {
		record := readingRecord(10, 400)

		_, err := engine.AdvanceByPercentage(record, 100, now)
		require.NoError(t, err)
		assert.Equal(t, 400, record.CurrentPageOrZero())
	})

	t.Run("rejects out of range percent", func(t *testing.T) {
		record := readingRecord(10, 400)

		_, err := engine.AdvanceByPercentage(record, 120, now)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "percent", verr.Field)
	})

	t.Run("requires a known total", func(t *testing.T) {
		record := readingRecord(10, 0)
		record.TotalPages = nil

		_, err := engine.AdvanceByPercentage(record, 50, now)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "total_pages", verr.Field)
	})
}

func TestMoveToList(t *testing.T) {
	engine := NewEngine(Options{})
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("pending to reading stamps start date", func(t *testing.T) {
		record := &entities.BookRecord{
			ListName:  entities.ListPending,
			DateAdded: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		entries, err := engine.MoveToList(record, entities.ListReading, now)
		require.NoError(t, err)

		assert.Empty(t, entries)
		assert.Equal(t, entities.ListReading, record.ListName)
		require.NotNil(t, record.StartDate)
		assert.Equal(t, now, *record.StartDate)
		require.NotNil(t, record.CurrentPage)
		assert.Equal(t, 0, *record.CurrentPage)
	})

	t.Run("existing start date is preserved", func(t *testing.T) {
		started := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		record := readingRecord(20, 400)
		record.ListName = entities.ListAbandoned
		record.StartDate = &started

		_, err := engine.MoveToList(record, entities.ListReading, now)
		require.NoError(t, err)
		assert.Equal(t, started, *record.StartDate)
	})

	t.Run("finishing freezes progress and logs the remainder", func(t *testing.T) {
		record := readingRecord(350, 400)

		entries, err := engine.MoveToList(record, entities.ListFinished, now)
		require.NoError(t, err)

		assert.Equal(t, entities.ListFinished, record.ListName)
		require.NotNil(t, record.FinishDate)
		assert.Equal(t, now, *record.FinishDate)
		assert.Equal(t, 400, record.CurrentPageOrZero())
		require.Len(t, entries, 1)
		assert.Equal(t, 50, entries[0].PagesAdvanced)
	})

	t.Run("finishing from the last page logs nothing", func(t *testing.T) {
		record := readingRecord(400, 400)

		entries, err := engine.MoveToList(record, entities.ListFinished, now)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("finishing from the last page logs zero when enabled", func(t *testing.T) {
		permissive := NewEngine(Options{RecordNonPositiveDeltas: true})
		record := readingRecord(400, 400)

		entries, err := permissive.MoveToList(record, entities.ListFinished, now)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 0, entries[0].PagesAdvanced)
	})

	t.Run("abandoning keeps progress untouched", func(t *testing.T) {
		record := readingRecord(123, 400)

		entries, err := engine.MoveToList(record, entities.ListAbandoned, now)
		require.NoError(t, err)

		assert.Empty(t, entries)
		assert.Equal(t, 123, record.CurrentPageOrZero())
		assert.Nil(t, record.FinishDate)
		require.NotNil(t, record.LastDateRead)
		assert.Equal(t, now, *record.LastDateRead)
	})

	t.Run("same list is a conflict", func(t *testing.T) {
		record := readingRecord(10, 400)

		_, err := engine.MoveToList(record, entities.ListReading, now)
		assert.ErrorIs(t, err, ErrAlreadyInList)
	})

	t.Run("unknown list is rejected", func(t *testing.T) {
		record := readingRecord(10, 400)

		_, err := engine.MoveToList(record, entities.ListName("Wishlist"), now)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestRate(t *testing.T) {
	engine := NewEngine(Options{})

	t.Run("accepts the full range", func(t *testing.T) {
		record := readingRecord(10, 400)
		for rating := 0; rating <= 5; rating++ {
			require.NoError(t, engine.Rate(record, rating))
			assert.Equal(t, rating, record.Rating)
		}
	})

	t.Run("rejects out of range", func(t *testing.T) {
		record := readingRecord(10, 400)
		assert.Error(t, engine.Rate(record, 6))
		assert.Error(t, engine.Rate(record, -1))
	})
}

func TestEditDates(t *testing.T) {
	engine := NewEngine(Options{})
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	finish := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	t.Run("sets both dates", func(t *testing.T) {
		record := readingRecord(10, 400)

		require.NoError(t, engine.EditDates(record, &start, &finish))
		assert.Equal(t, start, *record.StartDate)
		assert.Equal(t, finish, *record.FinishDate)
	})

	t.Run("nil leaves a date unchanged", func(t *testing.T) {
		record := readingRecord(10, 400)
		record.StartDate = &start

		require.NoError(t, engine.EditDates(record, nil, &finish))
		assert.Equal(t, start, *record.StartDate)
		assert.Equal(t, finish, *record.FinishDate)
	})

	t.Run("finish before start is rejected", func(t *testing.T) {
		record := readingRecord(10, 400)
		early := start.AddDate(0, -1, 0)

		err := engine.EditDates(record, &start, &early)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Nil(t, record.StartDate)
		assert.Nil(t, record.FinishDate)
	})
}
