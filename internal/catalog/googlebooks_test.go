package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPayload = `{
	"totalItems": 2,
	"items": [
		{
			"id": "zyTCAlFPjgYC",
			"volumeInfo": {
				"title": "The Google Story",
				"authors": ["David A. Vise", "Mark Malseed"],
				"pageCount": 207,
				"categories": ["Business & Economics"],
				"imageLinks": {"thumbnail": "http://books.google.com/books/content?id=zyTCAlFPjgYC"},
				"industryIdentifiers": [
					{"type": "ISBN_10", "identifier": "055338915X"},
					{"type": "ISBN_13", "identifier": "9780553389159"}
				]
			}
		},
		{
			"id": "abc123",
			"volumeInfo": {
				"title": "Untitled",
				"imageLinks": {"smallThumbnail": "http://books.google.com/small?id=abc123"}
			}
		}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *GoogleBooksClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewGoogleBooksClient(server.URL, "")
	client.rateLimiter.interval = 0
	return client
}

func TestSearch(t *testing.T) {
	t.Run("parses volumes", func(t *testing.T) {
		var gotQuery string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/volumes", r.URL.Path)
			gotQuery = r.URL.Query().Get("q")
			w.Write([]byte(searchPayload))
		})

		volumes, err := client.Search(context.Background(), "the google story", 10)
		require.NoError(t, err)

		assert.Equal(t, "the google story", gotQuery)
		require.Len(t, volumes, 2)
		assert.Equal(t, "zyTCAlFPjgYC", volumes[0].ID)
		assert.Equal(t, "The Google Story", volumes[0].Title)
		assert.Equal(t, "David A. Vise", volumes[0].PrimaryAuthor())
		assert.Equal(t, 207, volumes[0].PageCount)
		assert.Equal(t, "9780553389159", volumes[0].ISBN)
	})

	t.Run("upgrades thumbnails to https", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(searchPayload))
		})

		volumes, err := client.Search(context.Background(), "anything", 10)
		require.NoError(t, err)

		assert.Equal(t, "https://books.google.com/books/content?id=zyTCAlFPjgYC", volumes[0].ThumbnailURL)
		// Small thumbnail is the fallback when the regular one is missing
		assert.Equal(t, "https://books.google.com/small?id=abc123", volumes[1].ThumbnailURL)
	})

	t.Run("empty result set", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"totalItems": 0}`))
		})

		volumes, err := client.Search(context.Background(), "nothing here", 10)
		require.NoError(t, err)
		assert.Empty(t, volumes)
	})

	t.Run("server error maps to ErrUnavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Search(context.Background(), "anything", 10)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("rejects blank query", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		_, err := client.Search(context.Background(), "  ", 10)
		assert.Error(t, err)
	})
}

func TestSearchQualifiers(t *testing.T) {
	t.Run("isbn qualifier", func(t *testing.T) {
		var gotQuery string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			w.Write([]byte(`{"totalItems": 0}`))
		})

		_, err := client.SearchByISBN(context.Background(), "978-0-553-38915-9")
		require.NoError(t, err)
		assert.Equal(t, "isbn:9780553389159", gotQuery)
	})

	t.Run("invalid isbn rejected before any call", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})

		_, err := client.SearchByISBN(context.Background(), "12345")
		assert.Error(t, err)
	})

	t.Run("title and author qualifiers", func(t *testing.T) {
		var gotQuery string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			w.Write([]byte(`{"totalItems": 0}`))
		})

		_, err := client.SearchByTitle(context.Background(), "Dune", "Frank Herbert")
		require.NoError(t, err)
		assert.Equal(t, `intitle:"Dune" inauthor:"Frank Herbert"`, gotQuery)
	})
}

func TestGetVolume(t *testing.T) {
	t.Run("fetches by id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/volumes/zyTCAlFPjgYC", r.URL.Path)
			w.Write([]byte(`{
				"id": "zyTCAlFPjgYC",
				"volumeInfo": {"title": "The Google Story", "pageCount": 207}
			}`))
		})

		volume, err := client.GetVolume(context.Background(), "zyTCAlFPjgYC")
		require.NoError(t, err)
		assert.Equal(t, "The Google Story", volume.Title)
		assert.Equal(t, 207, volume.PageCount)
	})

	t.Run("missing volume", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetVolume(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrVolumeNotFound)
	})
}

func TestLookup(t *testing.T) {
	t.Run("prefers isbn match", func(t *testing.T) {
		var queries []string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			queries = append(queries, r.URL.Query().Get("q"))
			w.Write([]byte(searchPayload))
		})

		volume, err := client.Lookup(context.Background(), "9780553389159", "The Google Story", "")
		require.NoError(t, err)
		require.NotNil(t, volume)
		assert.Equal(t, "zyTCAlFPjgYC", volume.ID)
		require.Len(t, queries, 1)
		assert.Equal(t, "isbn:9780553389159", queries[0])
	})

	t.Run("falls back to title search", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("q") == "isbn:9780000000002" {
				w.Write([]byte(`{"totalItems": 0}`))
				return
			}
			w.Write([]byte(searchPayload))
		})

		volume, err := client.Lookup(context.Background(), "9780000000002", "The Google Story", "David A. Vise")
		require.NoError(t, err)
		require.NotNil(t, volume)
		assert.Equal(t, "zyTCAlFPjgYC", volume.ID)
	})

	t.Run("nil when nothing matches", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"totalItems": 0}`))
		})

		volume, err := client.Lookup(context.Background(), "", "Unknown Book", "")
		require.NoError(t, err)
		assert.Nil(t, volume)
	})
}
