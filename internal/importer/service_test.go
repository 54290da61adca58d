package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/database/imports"
	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/entities"
)

type fakeCatalog struct {
	volumes map[string]*catalog.Volume // keyed by ISBN
}

func (f *fakeCatalog) Lookup(ctx context.Context, isbn, title, author string) (*catalog.Volume, error) {
	if volume, ok := f.volumes[isbn]; ok {
		return volume, nil
	}
	return nil, nil
}

func setupImportTest(t *testing.T) (*gorm.DB, *Service, *fakeCatalog) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.BookRecord{},
		&entities.ReadingActivity{},
		&entities.ImportSession{},
	))

	cat := &fakeCatalog{volumes: map[string]*catalog.Volume{}}
	service := NewService(records.NewRepository(db), imports.NewRepository(db), cat)
	return db, service, cat
}

func TestImportCSV(t *testing.T) {
	t.Run("creates records and a completed session", func(t *testing.T) {
		db, service, _ := setupImportTest(t)

		csv := "Title,Authors,Read Status\nDune,Frank Herbert,read\nHyperion,Dan Simmons,currently-reading\n"
		result, err := service.ImportCSV(context.Background(), 1, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 2, result.RowsProcessed)
		assert.Equal(t, 2, result.RecordsCreated)
		assert.Zero(t, result.RowsFailed)

		var stored []entities.BookRecord
		require.NoError(t, db.Find(&stored).Error)
		require.Len(t, stored, 2)
		// Unmatched rows get synthesized identifiers
		assert.NotEmpty(t, stored[0].BookID)
		assert.NotEqual(t, stored[0].BookID, stored[1].BookID)

		var session entities.ImportSession
		require.NoError(t, db.First(&session, result.SessionID).Error)
		assert.Equal(t, entities.ImportStatusCompleted, session.Status)
		assert.Equal(t, 2, session.RecordsCreated)
		require.NotNil(t, session.CompletedAt)
	})

	t.Run("enriches from the catalog", func(t *testing.T) {
		db, service, cat := setupImportTest(t)
		cat.volumes["9780441013593"] = &catalog.Volume{
			ID:           "vol-dune",
			Title:        "Dune",
			Authors:      []string{"Frank Herbert"},
			PageCount:    412,
			Categories:   []string{"Science Fiction"},
			ThumbnailURL: "https://books.example/dune.jpg",
		}

		csv := "Title,ISBN/UID,Read Status\nDune,9780441013593,read\n"
		result, err := service.ImportCSV(context.Background(), 1, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, result.RecordsCreated)

		var stored entities.BookRecord
		require.NoError(t, db.First(&stored).Error)
		assert.Equal(t, "vol-dune", stored.BookID)
		assert.Equal(t, "Frank Herbert", stored.Author)
		assert.Equal(t, "https://books.example/dune.jpg", stored.CoverURL)
		require.NotNil(t, stored.TotalPages)
		assert.Equal(t, 412, *stored.TotalPages)
		assert.Equal(t, entities.StringList{"Science Fiction"}, stored.Categories)
	})

	t.Run("duplicates are tallied not fatal", func(t *testing.T) {
		_, service, cat := setupImportTest(t)
		cat.volumes["9780441013593"] = &catalog.Volume{ID: "vol-dune", Title: "Dune"}

		csv := "Title,ISBN/UID,Read Status\nDune,9780441013593,read\nDune,9780441013593,read\n"
		result, err := service.ImportCSV(context.Background(), 1, strings.NewReader(csv))
		require.NoError(t, err)

		assert.Equal(t, 2, result.RowsProcessed)
		assert.Equal(t, 1, result.RecordsCreated)
		assert.Equal(t, 1, result.RowsFailed)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "already tracked")
	})

	t.Run("unparseable file fails the session", func(t *testing.T) {
		db, service, _ := setupImportTest(t)

		_, err := service.ImportCSV(context.Background(), 1, strings.NewReader("Authors\nOnly\n"))
		require.Error(t, err)

		var session entities.ImportSession
		require.NoError(t, db.First(&session).Error)
		assert.Equal(t, entities.ImportStatusFailed, session.Status)
	})
}
