// Package importer ingests book records from CSV exports of other reading
// trackers. Parsing and record conversion are separated from the batch
// service so each row failure is reported without aborting the run.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lectorflow/server/internal/entities"
)

// Row is one parsed CSV line, keyed by the portable column vocabulary.
type Row struct {
	Title           string
	Authors         string
	ISBN            string
	Format          string
	ReadStatus      string
	DateAdded       string
	LastDateRead    string
	ReadCount       string
	StarRating      string
	Review          string
	ContentWarnings string
	Tags            string
	Owned           string
}

// ParseCSV reads the import file into rows. Lines missing a title are
// reported in the returned error list and skipped; a missing Title header
// fails the whole parse.
func ParseCSV(r io.Reader) ([]Row, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	if _, ok := headerIndex["title"]; !ok {
		return nil, nil, fmt.Errorf("missing required header: Title")
	}

	var rows []Row
	var errors []string
	lineNum := 1 // Start at 1 because we already read the header

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errors = append(errors, fmt.Sprintf("Line %d: %v", lineNum, err))
			continue
		}

		row := Row{
			Title:           getCSVValue(record, headerIndex, "title"),
			Authors:         getCSVValue(record, headerIndex, "authors"),
			ISBN:            getCSVValue(record, headerIndex, "isbn/uid"),
			Format:          getCSVValue(record, headerIndex, "format"),
			ReadStatus:      getCSVValue(record, headerIndex, "read status"),
			DateAdded:       getCSVValue(record, headerIndex, "date added"),
			LastDateRead:    getCSVValue(record, headerIndex, "last date read"),
			ReadCount:       getCSVValue(record, headerIndex, "read count"),
			StarRating:      getCSVValue(record, headerIndex, "star rating"),
			Review:          getCSVValue(record, headerIndex, "review"),
			ContentWarnings: getCSVValue(record, headerIndex, "content warnings"),
			Tags:            getCSVValue(record, headerIndex, "tags"),
			Owned:           getCSVValue(record, headerIndex, "owned?"),
		}

		if row.Title == "" {
			errors = append(errors, fmt.Sprintf("Line %d: skipped - missing title", lineNum))
			continue
		}

		rows = append(rows, row)
	}

	return rows, errors, nil
}

func getCSVValue(record []string, headerIndex map[string]int, header string) string {
	if idx, ok := headerIndex[header]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

// MapReadStatus translates the portable read-status vocabulary into a
// list name. Unknown statuses land in Pendientes.
func MapReadStatus(status string) entities.ListName {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "read":
		return entities.ListFinished
	case "currently-reading":
		return entities.ListReading
	case "abandonados":
		return entities.ListAbandoned
	default:
		return entities.ListPending
	}
}

// RowToRecord converts a parsed row into a book record owned by userID.
// Unparseable numbers and dates degrade to their zero values rather than
// failing the row.
func RowToRecord(row Row, userID uint, now time.Time) entities.BookRecord {
	record := entities.BookRecord{
		UserID:          userID,
		Title:           row.Title,
		Author:          row.Authors,
		ISBN:            row.ISBN,
		Format:          row.Format,
		ListName:        MapReadStatus(row.ReadStatus),
		Review:          row.Review,
		ContentWarnings: row.ContentWarnings,
		Tags:            splitTags(row.Tags),
		Owned:           parseOwned(row.Owned),
		DateAdded:       now,
	}

	if added, err := parseDate(row.DateAdded); err == nil {
		record.DateAdded = added
	}
	if lastRead, err := parseDate(row.LastDateRead); err == nil {
		record.LastDateRead = &lastRead
		if record.ListName == entities.ListFinished {
			record.FinishDate = &lastRead
		}
	}

	if count, err := strconv.Atoi(row.ReadCount); err == nil && count > 0 {
		record.ReadCount = count
	}
	if rating, err := strconv.ParseFloat(row.StarRating, 64); err == nil && rating >= 0 && rating <= 5 {
		record.Rating = int(rating)
	}

	return record
}

func splitTags(raw string) entities.StringList {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make(entities.StringList, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func parseOwned(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1":
		return true
	}
	return false
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", raw)
}
