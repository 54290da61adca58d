// Package stats derives aggregate views from a user's book records: the
// activity calendar, per-day activity breakdowns and summary statistics
// over finished books. All computations work on records already loaded
// with their activity logs; nothing here touches the database.
package stats

import (
	"math"
	"sort"

	"github.com/lectorflow/server/internal/entities"
)

const dayFormat = "2006-01-02"

// GenreCount pairs a display genre bucket with how many finished books
// fell into it. Order of first appearance is preserved.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// DayActivity is one book's contribution to a given calendar day.
type DayActivity struct {
	Title         string `json:"title"`
	PagesAdvanced int    `json:"pages_advanced"`
}

// ReadingStats summarises the Terminados list. BooksByYear groups the
// finished records by the year of their resolved date, each group newest
// first; Years lists those years in descending order.
type ReadingStats struct {
	TotalBooksRead      int                           `json:"total_books_read"`
	TotalPagesRead      int                           `json:"total_pages_read"`
	AveragePagesPerBook int                           `json:"average_pages_per_book"`
	AverageRating       float64                       `json:"average_rating"`
	FavoriteAuthor      string                        `json:"favorite_author,omitempty"`
	GenreDistribution   []GenreCount                  `json:"genre_distribution"`
	BooksByYear         map[int][]entities.BookRecord `json:"books_by_year"`
	Years               []int                         `json:"years"`
}

// CalendarMarkers flattens every activity entry across the given records
// into a set of days with recorded reading, keyed as YYYY-MM-DD.
func CalendarMarkers(records []entities.BookRecord) map[string]bool {
	markers := make(map[string]bool)
	for _, record := range records {
		for _, entry := range record.Activity {
			markers[entry.Date.Format(dayFormat)] = true
		}
	}
	return markers
}

// DailyActivity collects the per-book page advances logged on one day,
// in record scan order. day is compared at date precision.
func DailyActivity(records []entities.BookRecord, day string) []DayActivity {
	activity := make([]DayActivity, 0)
	for _, record := range records {
		for _, entry := range record.Activity {
			if entry.Date.Format(dayFormat) == day {
				activity = append(activity, DayActivity{
					Title:         record.Title,
					PagesAdvanced: entry.PagesAdvanced,
				})
			}
		}
	}
	return activity
}

// Compute builds the summary statistics. Only records on the Terminados
// list contribute; everything else is ignored.
func Compute(records []entities.BookRecord) ReadingStats {
	result := ReadingStats{
		GenreDistribution: []GenreCount{},
		BooksByYear:       map[int][]entities.BookRecord{},
	}

	var pagesTotal, pagesKnownCount int
	var ratingSum, ratingCount int
	authorCounts := make(map[string]int)
	var authorOrder []string
	genreIndex := make(map[string]int)

	for _, record := range records {
		if record.ListName != entities.ListFinished {
			continue
		}
		result.TotalBooksRead++
		if record.TotalPages != nil {
			pagesTotal += *record.TotalPages
			pagesKnownCount++
		}

		if record.Rating > 0 {
			ratingSum += record.Rating
			ratingCount++
		}

		if record.Author != "" {
			if _, seen := authorCounts[record.Author]; !seen {
				authorOrder = append(authorOrder, record.Author)
			}
			authorCounts[record.Author]++
		}

		genre := GenreOther
		if len(record.Categories) > 0 {
			genre = BroaderGenre(record.Categories[0])
		}
		if idx, ok := genreIndex[genre]; ok {
			result.GenreDistribution[idx].Count++
		} else {
			genreIndex[genre] = len(result.GenreDistribution)
			result.GenreDistribution = append(result.GenreDistribution, GenreCount{Genre: genre, Count: 1})
		}

		if date, ok := record.ResolvedDate(); ok {
			year := date.Year()
			result.BooksByYear[year] = append(result.BooksByYear[year], record)
		}
	}

	result.TotalPagesRead = pagesTotal
	// Books without a known page total carry no pages and are left out of
	// the average entirely.
	if pagesKnownCount > 0 {
		result.AveragePagesPerBook = int(math.Round(float64(pagesTotal) / float64(pagesKnownCount)))
	}
	if ratingCount > 0 {
		result.AverageRating = math.Round(float64(ratingSum)/float64(ratingCount)*10) / 10
	}

	// Most-read author; ties keep the first author encountered.
	best := 0
	for _, author := range authorOrder {
		if authorCounts[author] > best {
			best = authorCounts[author]
			result.FavoriteAuthor = author
		}
	}

	result.Years = make([]int, 0, len(result.BooksByYear))
	for year, group := range result.BooksByYear {
		result.Years = append(result.Years, year)
		sort.SliceStable(group, func(i, j int) bool {
			di, _ := group[i].ResolvedDate()
			dj, _ := group[j].ResolvedDate()
			return dj.Before(di)
		})
	}
	sort.Sort(sort.Reverse(sort.IntSlice(result.Years)))

	return result
}
