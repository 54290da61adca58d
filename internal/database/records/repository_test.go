package records

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lectorflow/server/internal/entities"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.BookRecord{}, &entities.ReadingActivity{}))
	return NewRepository(db)
}

func newRecord(userID uint, bookID string, list entities.ListName) *entities.BookRecord {
	return &entities.BookRecord{
		UserID:    userID,
		BookID:    bookID,
		ListName:  list,
		Title:     "Title " + bookID,
		Author:    "Author",
		DateAdded: time.Now(),
	}
}

func TestCreate(t *testing.T) {
	repo := setupTestRepo(t)

	t.Run("creates a record", func(t *testing.T) {
		record := newRecord(1, "vol-1", entities.ListPending)
		require.NoError(t, repo.Create(record))
		assert.NotZero(t, record.ID)
	})

	t.Run("duplicate book for the same user", func(t *testing.T) {
		err := repo.Create(newRecord(1, "vol-1", entities.ListReading))
		assert.ErrorIs(t, err, ErrDuplicateRecord)
	})

	t.Run("same book for another user is fine", func(t *testing.T) {
		assert.NoError(t, repo.Create(newRecord(2, "vol-1", entities.ListPending)))
	})
}

func TestGetByID(t *testing.T) {
	repo := setupTestRepo(t)

	record := newRecord(1, "vol-1", entities.ListReading)
	require.NoError(t, repo.Create(record))
	require.NoError(t, repo.AppendActivity(record.ID, []entities.ReadingActivity{
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), PagesAdvanced: 20},
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), PagesAdvanced: 30},
	}))

	t.Run("loads activity in date order", func(t *testing.T) {
		got, err := repo.GetByID(record.ID, 1)
		require.NoError(t, err)
		require.Len(t, got.Activity, 2)
		assert.Equal(t, 30, got.Activity[0].PagesAdvanced)
		assert.Equal(t, 20, got.Activity[1].PagesAdvanced)
	})

	t.Run("scoped to owner", func(t *testing.T) {
		_, err := repo.GetByID(record.ID, 99)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestGetByUserAndBook(t *testing.T) {
	repo := setupTestRepo(t)
	require.NoError(t, repo.Create(newRecord(1, "vol-1", entities.ListPending)))

	got, err := repo.GetByUserAndBook(1, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, "vol-1", got.BookID)

	_, err = repo.GetByUserAndBook(1, "vol-unknown")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListByUserAndList(t *testing.T) {
	repo := setupTestRepo(t)

	older := newRecord(1, "vol-1", entities.ListReading)
	older.DateAdded = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := newRecord(1, "vol-2", entities.ListReading)
	newer.DateAdded = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(older))
	require.NoError(t, repo.Create(newer))
	require.NoError(t, repo.Create(newRecord(1, "vol-3", entities.ListFinished)))
	require.NoError(t, repo.Create(newRecord(2, "vol-4", entities.ListReading)))

	reading, err := repo.ListByUserAndList(1, entities.ListReading)
	require.NoError(t, err)
	require.Len(t, reading, 2)
	// Newest additions come first
	assert.Equal(t, "vol-2", reading[0].BookID)
	assert.Equal(t, "vol-1", reading[1].BookID)

	all, err := repo.ListByUser(1)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdate(t *testing.T) {
	repo := setupTestRepo(t)

	record := newRecord(1, "vol-1", entities.ListPending)
	require.NoError(t, repo.Create(record))

	record.ListName = entities.ListReading
	page := 42
	record.CurrentPage = &page
	require.NoError(t, repo.Update(record))

	got, err := repo.GetByID(record.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.ListReading, got.ListName)
	assert.Equal(t, 42, got.CurrentPageOrZero())
}

func TestUpdateWithActivity(t *testing.T) {
	repo := setupTestRepo(t)

	record := newRecord(1, "vol-1", entities.ListReading)
	require.NoError(t, repo.Create(record))

	page := 80
	record.CurrentPage = &page
	entries := []entities.ReadingActivity{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), PagesAdvanced: 80},
	}
	require.NoError(t, repo.UpdateWithActivity(record, entries))

	got, err := repo.GetByID(record.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 80, got.CurrentPageOrZero())
	require.Len(t, got.Activity, 1)
	assert.Equal(t, 80, got.Activity[0].PagesAdvanced)
	assert.Equal(t, record.ID, got.Activity[0].RecordID)

	t.Run("no entries leaves the log alone", func(t *testing.T) {
		page := 95
		record.CurrentPage = &page
		require.NoError(t, repo.UpdateWithActivity(record, nil))

		got, err := repo.GetByID(record.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 95, got.CurrentPageOrZero())
		assert.Len(t, got.Activity, 1)
	})
}

func TestDelete(t *testing.T) {
	repo := setupTestRepo(t)

	record := newRecord(1, "vol-1", entities.ListReading)
	require.NoError(t, repo.Create(record))
	require.NoError(t, repo.AppendActivity(record.ID, []entities.ReadingActivity{
		{Date: time.Now(), PagesAdvanced: 10},
	}))

	t.Run("only the owner can delete", func(t *testing.T) {
		err := repo.Delete(record.ID, 99)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("removes the record and its activity", func(t *testing.T) {
		require.NoError(t, repo.Delete(record.ID, 1))

		_, err := repo.GetByID(record.ID, 1)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestListMissingMetadata(t *testing.T) {
	repo := setupTestRepo(t)

	bare := newRecord(1, "vol-1", entities.ListPending)
	require.NoError(t, repo.Create(bare))

	complete := newRecord(1, "vol-2", entities.ListPending)
	complete.CoverURL = "https://books.example/cover.jpg"
	pages := 300
	complete.TotalPages = &pages
	complete.Categories = entities.StringList{"Fantasy"}
	require.NoError(t, repo.Create(complete))

	missing, err := repo.ListMissingMetadata(10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "vol-1", missing[0].BookID)
}
