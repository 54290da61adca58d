// Package progress implements the reading progress rules: page advances,
// list transitions, ratings and date edits. The engine is pure; it mutates
// the record in place and returns the activity entries the caller should
// append, leaving persistence to the repository layer.
package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lectorflow/server/internal/entities"
)

// ErrAlreadyInList is returned by MoveToList when the record is already on
// the target list. Callers treat it as a no-op conflict, not a failure.
var ErrAlreadyInList = errors.New("record is already in the requested list")

// ValidationError marks input that violates a progress rule. Handlers map
// it to a 400 response.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Options tunes engine behaviour.
type Options struct {
	// RecordNonPositiveDeltas appends zero and negative page deltas to the
	// activity log. When false (the default) such deltas update the page
	// counter silently.
	RecordNonPositiveDeltas bool
}

// Engine applies progress mutations to book records.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// AdvanceProgress moves the record's page counter to newCurrent and, when
// given, updates the page total. The delta against the previous counter is
// logged as one activity entry dated now. Entries accumulate; the log is
// never rewritten.
func (e *Engine) AdvanceProgress(record *entities.BookRecord, newCurrent int, newTotal *int, now time.Time) ([]entities.ReadingActivity, error) {
	if newCurrent < 0 {
		return nil, &ValidationError{Field: "current_page", Reason: "must not be negative"}
	}

	total := record.TotalPagesOrZero()
	if newTotal != nil {
		if *newTotal < 0 {
			return nil, &ValidationError{Field: "total_pages", Reason: "must not be negative"}
		}
		total = *newTotal
	}
	if total > 0 && newCurrent > total {
		return nil, &ValidationError{Field: "current_page", Reason: "exceeds total pages"}
	}

	delta := newCurrent - record.CurrentPageOrZero()

	record.CurrentPage = &newCurrent
	if newTotal != nil {
		record.TotalPages = newTotal
	}
	record.LastDateRead = &now

	if delta > 0 || e.opts.RecordNonPositiveDeltas {
		return []entities.ReadingActivity{{Date: now, PagesAdvanced: delta}}, nil
	}
	return nil, nil
}

// AdvanceByPercentage converts a 0-100 percentage into an absolute page and
// delegates to AdvanceProgress. The record must have a known page total.
func (e *Engine) AdvanceByPercentage(record *entities.BookRecord, percent float64, now time.Time) ([]entities.ReadingActivity, error) {
	if percent < 0 || percent > 100 {
		return nil, &ValidationError{Field: "percent", Reason: "must be between 0 and 100"}
	}
	total := record.TotalPagesOrZero()
	if total <= 0 {
		return nil, &ValidationError{Field: "total_pages", Reason: "unknown, cannot convert percentage"}
	}
	page := int(math.Round(percent / 100 * float64(total)))
	return e.AdvanceProgress(record, page, nil, now)
}

// MoveToList transfers the record to the target list and applies the
// transition side effects:
//
//   - to Leyendo: the start date is stamped if absent and the page counter
//     is initialised to zero when unset.
//   - to Terminados: the finish date is stamped, the counter is frozen at
//     the page total and the remaining pages are logged as a final entry.
//   - to Pendientes or Abandonados: progress fields are left untouched.
//
// Every transition stamps LastDateRead. Moving to the list the record is
// already on returns ErrAlreadyInList.
func (e *Engine) MoveToList(record *entities.BookRecord, target entities.ListName, now time.Time) ([]entities.ReadingActivity, error) {
	if !target.Valid() {
		return nil, &ValidationError{Field: "list_name", Reason: "unknown list"}
	}
	if record.ListName == target {
		return nil, ErrAlreadyInList
	}

	var entries []entities.ReadingActivity

	switch target {
	case entities.ListReading:
		if record.StartDate == nil {
			record.StartDate = &now
		}
		if record.CurrentPage == nil {
			zero := 0
			record.CurrentPage = &zero
		}
	case entities.ListFinished:
		record.FinishDate = &now
		total := record.TotalPagesOrZero()
		remaining := total - record.CurrentPageOrZero()
		record.CurrentPage = &total
		if remaining > 0 || e.opts.RecordNonPositiveDeltas {
			entries = append(entries, entities.ReadingActivity{Date: now, PagesAdvanced: remaining})
		}
	}

	record.ListName = target
	record.LastDateRead = &now

	return entries, nil
}

// Rate sets the star rating. Zero clears it.
func (e *Engine) Rate(record *entities.BookRecord, rating int) error {
	if rating < 0 || rating > 5 {
		return &ValidationError{Field: "rating", Reason: "must be between 0 and 5"}
	}
	record.Rating = rating
	return nil
}

// EditDates overrides the start and finish dates. Nil leaves a date as is.
// A finish date before the start date is rejected.
func (e *Engine) EditDates(record *entities.BookRecord, start, finish *time.Time) error {
	newStart := record.StartDate
	if start != nil {
		newStart = start
	}
	newFinish := record.FinishDate
	if finish != nil {
		newFinish = finish
	}
	if newStart != nil && newFinish != nil && newFinish.Before(*newStart) {
		return &ValidationError{Field: "finish_date", Reason: "must not precede start date"}
	}
	record.StartDate = newStart
	record.FinishDate = newFinish
	return nil
}
