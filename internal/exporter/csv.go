// Package exporter renders a user's book records as CSV. The column
// vocabulary matches what the importer reads, so an exported file can be
// imported back without translation.
package exporter

import (
	"strconv"
	"strings"
	"time"

	"github.com/lectorflow/server/internal/entities"
)

const dateFormat = "2006-01-02"

// Headers is the exported column set. The first thirteen columns mirror
// the import vocabulary; the trailing ones carry tracker-only state and
// are ignored on re-import.
var Headers = []string{
	"Title",
	"Authors",
	"ISBN/UID",
	"Format",
	"Read Status",
	"Date Added",
	"Last Date Read",
	"Read Count",
	"Star Rating",
	"Review",
	"Content Warnings",
	"Tags",
	"Owned?",
	"Book ID",
	"Current Page",
	"Total Pages",
	"Start Date",
	"Finish Date",
	"Categories",
}

// statusNames maps lists back to the portable read-status vocabulary.
var statusNames = map[entities.ListName]string{
	entities.ListFinished:  "read",
	entities.ListReading:   "currently-reading",
	entities.ListAbandoned: "abandonados",
	entities.ListPending:   "to-read",
}

// ConvertToCSV renders the records as a CSV document. Every value is
// double-quoted with embedded quotes doubled, keeping the output stable
// regardless of commas or newlines in titles and reviews.
func ConvertToCSV(records []entities.BookRecord) string {
	var sb strings.Builder

	writeRow(&sb, Headers)
	for _, record := range records {
		writeRow(&sb, recordRow(&record))
	}
	return sb.String()
}

func recordRow(record *entities.BookRecord) []string {
	return []string{
		record.Title,
		record.Author,
		record.ISBN,
		record.Format,
		statusNames[record.ListName],
		formatDate(&record.DateAdded),
		formatDate(record.LastDateRead),
		strconv.Itoa(record.ReadCount),
		formatRating(record.Rating),
		record.Review,
		record.ContentWarnings,
		strings.Join(record.Tags, ", "),
		formatOwned(record.Owned),
		record.BookID,
		formatIntPtr(record.CurrentPage),
		formatIntPtr(record.TotalPages),
		formatDate(record.StartDate),
		formatDate(record.FinishDate),
		strings.Join(record.Categories, ", "),
	}
}

func writeRow(sb *strings.Builder, values []string) {
	for i, value := range values {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(value, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func formatRating(rating int) string {
	if rating == 0 {
		return ""
	}
	return strconv.Itoa(rating)
}

func formatOwned(owned bool) string {
	if owned {
		return "Yes"
	}
	return "No"
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
