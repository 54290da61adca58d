package stats

import "strings"

// Spanish genre buckets used in the aggregate distribution.
const (
	GenreFantasy    = "Fantasía"
	GenreSciFi      = "Ciencia Ficción"
	GenreMystery    = "Misterio, Thriller y Terror"
	GenreFiction    = "Ficción General"
	GenreNonFiction = "No Ficción"
	GenreOther      = "Otros"
)

// genreRule maps a catalog category keyword to a display bucket. Rules are
// ordered; the first matching keyword wins. "non-fiction" contains
// "fiction" and therefore lands in the general fiction bucket, keeping the
// historical bucketing stable.
type genreRule struct {
	keyword string
	bucket  string
}

var genreRules = []genreRule{
	{"fantasy", GenreFantasy},
	{"science fiction", GenreSciFi},
	{"dystopian", GenreSciFi},
	{"mystery", GenreMystery},
	{"thriller", GenreMystery},
	{"horror", GenreMystery},
	{"fiction", GenreFiction},
	{"novela", GenreFiction},
	{"literatura", GenreFiction},
	{"contemporary", GenreFiction},
	{"histórica", GenreFiction},
	{"non-fiction", GenreNonFiction},
	{"history", GenreNonFiction},
	{"biography", GenreNonFiction},
	{"science", GenreNonFiction},
	{"psychology", GenreNonFiction},
	{"philosophy", GenreNonFiction},
	{"business", GenreNonFiction},
}

// BroaderGenre collapses a raw catalog category into one of the display
// buckets. Matching is case-insensitive substring against the rule table;
// anything unmatched falls into Otros.
func BroaderGenre(category string) string {
	lower := strings.ToLower(category)
	for _, rule := range genreRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.bucket
		}
	}
	return GenreOther
}
