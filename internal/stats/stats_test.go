package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectorflow/server/internal/entities"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func finished(title, author string, pages, rating int, category string, finishedAt time.Time) entities.BookRecord {
	return entities.BookRecord{
		ListName:   entities.ListFinished,
		Title:      title,
		Author:     author,
		TotalPages: intPtr(pages),
		Rating:     rating,
		Categories: entities.StringList{category},
		FinishDate: timePtr(finishedAt),
	}
}

func TestBroaderGenre(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Epic Fantasy", GenreFantasy},
		{"Science Fiction", GenreSciFi},
		{"Dystopian Fiction", GenreSciFi},
		{"Mystery", GenreMystery},
		{"Psychological Thriller", GenreMystery},
		{"Horror", GenreMystery},
		{"Literary Fiction", GenreFiction},
		{"Novela histórica", GenreFiction},
		{"History", GenreNonFiction},
		{"Biography & Autobiography", GenreNonFiction},
		{"Popular Science", GenreNonFiction},
		{"Cooking", GenreOther},
		{"", GenreOther},
		// "non-fiction" contains "fiction" and matches the earlier rule
		{"Non-Fiction", GenreFiction},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, BroaderGenre(tt.category))
		})
	}
}

func TestCalendarMarkers(t *testing.T) {
	records := []entities.BookRecord{
		{
			Title: "Dune",
			Activity: []entities.ReadingActivity{
				{Date: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), PagesAdvanced: 30},
				{Date: time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC), PagesAdvanced: 20},
			},
		},
		{
			Title: "Hyperion",
			Activity: []entities.ReadingActivity{
				{Date: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), PagesAdvanced: 15},
			},
		},
	}

	markers := CalendarMarkers(records)

	assert.Len(t, markers, 2)
	assert.True(t, markers["2024-03-01"])
	assert.True(t, markers["2024-03-02"])
	assert.False(t, markers["2024-03-03"])
}

func TestDailyActivity(t *testing.T) {
	records := []entities.BookRecord{
		{
			Title: "Dune",
			Activity: []entities.ReadingActivity{
				{Date: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), PagesAdvanced: 30},
			},
		},
		{
			Title: "Hyperion",
			Activity: []entities.ReadingActivity{
				{Date: time.Date(2024, 3, 2, 21, 0, 0, 0, time.UTC), PagesAdvanced: 15},
				{Date: time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC), PagesAdvanced: 40},
			},
		},
	}

	t.Run("collects entries for the day in scan order", func(t *testing.T) {
		activity := DailyActivity(records, "2024-03-02")

		require.Len(t, activity, 2)
		assert.Equal(t, DayActivity{Title: "Dune", PagesAdvanced: 30}, activity[0])
		assert.Equal(t, DayActivity{Title: "Hyperion", PagesAdvanced: 15}, activity[1])
	})

	t.Run("empty slice for a quiet day", func(t *testing.T) {
		activity := DailyActivity(records, "2024-03-09")
		assert.NotNil(t, activity)
		assert.Empty(t, activity)
	})
}

func TestCompute(t *testing.T) {
	t.Run("only finished books count", func(t *testing.T) {
		records := []entities.BookRecord{
			finished("Dune", "Frank Herbert", 400, 5, "Science Fiction", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			{
				ListName:   entities.ListReading,
				Title:      "Hyperion",
				Author:     "Dan Simmons",
				TotalPages: intPtr(500),
				Rating:     4,
			},
		}

		stats := Compute(records)

		assert.Equal(t, 1, stats.TotalBooksRead)
		assert.Equal(t, 400, stats.TotalPagesRead)
		assert.Equal(t, "Frank Herbert", stats.FavoriteAuthor)
	})

	t.Run("averages", func(t *testing.T) {
		records := []entities.BookRecord{
			finished("A", "X", 300, 4, "Fantasy", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			finished("B", "X", 200, 5, "Fantasy", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			finished("C", "Y", 150, 0, "History", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)),
		}

		stats := Compute(records)

		assert.Equal(t, 3, stats.TotalBooksRead)
		assert.Equal(t, 650, stats.TotalPagesRead)
		// 650 / 3 rounds to 217
		assert.Equal(t, 217, stats.AveragePagesPerBook)
		// Unrated books are excluded from the rating average
		assert.InDelta(t, 4.5, stats.AverageRating, 0.001)
	})

	t.Run("unknown page totals stay out of the page average", func(t *testing.T) {
		records := []entities.BookRecord{
			finished("A", "X", 300, 4, "Fantasy", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			{
				ListName:   entities.ListFinished,
				Title:      "B",
				Author:     "Y",
				FinishDate: timePtr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			},
		}

		stats := Compute(records)

		assert.Equal(t, 2, stats.TotalBooksRead)
		assert.Equal(t, 300, stats.TotalPagesRead)
		assert.Equal(t, 300, stats.AveragePagesPerBook)
	})

	t.Run("no known page totals means a zero average", func(t *testing.T) {
		records := []entities.BookRecord{
			{
				ListName:   entities.ListFinished,
				Title:      "A",
				FinishDate: timePtr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			},
		}

		stats := Compute(records)

		assert.Equal(t, 1, stats.TotalBooksRead)
		assert.Zero(t, stats.AveragePagesPerBook)
	})

	t.Run("favorite author ties keep the first seen", func(t *testing.T) {
		records := []entities.BookRecord{
			finished("A", "Ursula K. Le Guin", 200, 5, "Fantasy", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			finished("B", "Frank Herbert", 400, 4, "Science Fiction", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			finished("C", "Frank Herbert", 350, 4, "Science Fiction", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			finished("D", "Ursula K. Le Guin", 250, 5, "Fantasy", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
		}

		stats := Compute(records)
		assert.Equal(t, "Ursula K. Le Guin", stats.FavoriteAuthor)
	})

	t.Run("genre distribution preserves first appearance order", func(t *testing.T) {
		records := []entities.BookRecord{
			finished("A", "X", 100, 3, "History", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			finished("B", "Y", 100, 3, "Fantasy", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			finished("C", "Z", 100, 3, "Biography", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		}

		stats := Compute(records)

		require.Len(t, stats.GenreDistribution, 2)
		assert.Equal(t, GenreCount{Genre: GenreNonFiction, Count: 2}, stats.GenreDistribution[0])
		assert.Equal(t, GenreCount{Genre: GenreFantasy, Count: 1}, stats.GenreDistribution[1])
	})

	t.Run("books by year falls back through dates", func(t *testing.T) {
		lastRead := time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC)
		records := []entities.BookRecord{
			finished("A", "X", 100, 3, "Fantasy", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			{
				ListName:     entities.ListFinished,
				Title:        "B",
				Author:       "Y",
				TotalPages:   intPtr(100),
				LastDateRead: &lastRead,
			},
			{
				ListName:  entities.ListFinished,
				Title:     "C",
				Author:    "Z",
				DateAdded: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		}

		stats := Compute(records)

		require.Len(t, stats.BooksByYear, 3)
		require.Len(t, stats.BooksByYear[2024], 1)
		assert.Equal(t, "A", stats.BooksByYear[2024][0].Title)
		require.Len(t, stats.BooksByYear[2022], 1)
		assert.Equal(t, "B", stats.BooksByYear[2022][0].Title)
		require.Len(t, stats.BooksByYear[2021], 1)
		assert.Equal(t, "C", stats.BooksByYear[2021][0].Title)
		assert.Equal(t, []int{2024, 2022, 2021}, stats.Years)
	})

	t.Run("year groups order books newest first", func(t *testing.T) {
		records := []entities.BookRecord{
			finished("January", "X", 100, 3, "Fantasy", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
			finished("November", "Y", 100, 3, "Fantasy", time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)),
			finished("June", "Z", 100, 3, "Fantasy", time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)),
		}

		stats := Compute(records)

		group := stats.BooksByYear[2024]
		require.Len(t, group, 3)
		assert.Equal(t, "November", group[0].Title)
		assert.Equal(t, "June", group[1].Title)
		assert.Equal(t, "January", group[2].Title)
	})

	t.Run("empty input", func(t *testing.T) {
		stats := Compute(nil)

		assert.Zero(t, stats.TotalBooksRead)
		assert.Zero(t, stats.AveragePagesPerBook)
		assert.Zero(t, stats.AverageRating)
		assert.Empty(t, stats.FavoriteAuthor)
		assert.Empty(t, stats.GenreDistribution)
		assert.Empty(t, stats.BooksByYear)
	})
}
