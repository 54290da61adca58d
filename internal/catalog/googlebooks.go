// Package catalog wraps the Google Books volumes API behind a small typed
// client. The external catalog is the source of book identity: the volume
// ID returned here is what book records are keyed on.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnavailable wraps transport and server-side failures from the catalog
// API so callers can degrade gracefully on read-only paths.
var ErrUnavailable = errors.New("catalog service unavailable")

// ErrVolumeNotFound is returned when a volume ID does not exist.
var ErrVolumeNotFound = errors.New("catalog volume not found")

// Volume is the catalog view of a book, trimmed to the fields the tracker
// stores on a record.
type Volume struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Authors      []string `json:"authors,omitempty"`
	Description  string   `json:"description,omitempty"`
	PageCount    int      `json:"page_count,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	ThumbnailURL string   `json:"thumbnail_url,omitempty"`
	ISBN         string   `json:"isbn,omitempty"`
}

// PrimaryAuthor returns the first listed author, or empty.
func (v *Volume) PrimaryAuthor() string {
	if len(v.Authors) == 0 {
		return ""
	}
	return v.Authors[0]
}

// GoogleBooksClient queries the Google Books volumes API with rate limiting.
type GoogleBooksClient struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewGoogleBooksClient creates a rate-limited catalog client. baseURL
// overrides the public endpoint for tests; apiKey is optional.
func NewGoogleBooksClient(baseURL, apiKey string) *GoogleBooksClient {
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/books/v1"
	}
	return &GoogleBooksClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

// Search runs a free-text query against the catalog and returns up to
// maxResults volumes.
func (c *GoogleBooksClient) Search(ctx context.Context, query string, maxResults int) ([]Volume, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if maxResults <= 0 || maxResults > 40 {
		maxResults = 20
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	var result volumesResponse
	if err := c.get(ctx, "/volumes", params, &result); err != nil {
		return nil, err
	}

	volumes := make([]Volume, 0, len(result.Items))
	for _, item := range result.Items {
		volumes = append(volumes, item.toVolume())
	}
	return volumes, nil
}

// SearchByISBN looks up volumes by ISBN using the isbn: field qualifier.
func (c *GoogleBooksClient) SearchByISBN(ctx context.Context, isbn string) ([]Volume, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}
	return c.Search(ctx, "isbn:"+isbn, 5)
}

// SearchByTitle looks up volumes with the intitle: qualifier, optionally
// narrowed by inauthor:.
func (c *GoogleBooksClient) SearchByTitle(ctx context.Context, title, author string) ([]Volume, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	query := fmt.Sprintf("intitle:%q", title)
	if author != "" {
		query += fmt.Sprintf(" inauthor:%q", author)
	}
	return c.Search(ctx, query, 5)
}

// GetVolume fetches a single volume by its catalog ID.
func (c *GoogleBooksClient) GetVolume(ctx context.Context, id string) (*Volume, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("volume id is required")
	}

	var item volumeItem
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	volume := item.toVolume()
	return &volume, nil
}

// Lookup finds the best matching volume by ISBN first, falling back to a
// title and author search. Returns nil without error when nothing matches.
func (c *GoogleBooksClient) Lookup(ctx context.Context, isbn, title, author string) (*Volume, error) {
	if isbn != "" {
		volumes, err := c.SearchByISBN(ctx, isbn)
		if err == nil && len(volumes) > 0 {
			return &volumes[0], nil
		}
	}
	if title == "" {
		return nil, nil
	}
	volumes, err := c.SearchByTitle(ctx, title, author)
	if err != nil {
		return nil, err
	}
	if len(volumes) == 0 {
		return nil, nil
	}
	return &volumes[0], nil
}

func (c *GoogleBooksClient) get(ctx context.Context, path string, params url.Values, out any) error {
	c.rateLimiter.wait()

	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	endpoint := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "LectorFlow/1.0 (https://github.com/lectorflow/server)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrVolumeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalizeISBN removes hyphens and spaces from ISBN.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// Google Books API response types (internal)

type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	ImageLinks          imageLinks           `json:"imageLinks"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

func (i volumeItem) toVolume() Volume {
	thumbnail := i.VolumeInfo.ImageLinks.Thumbnail
	if thumbnail == "" {
		thumbnail = i.VolumeInfo.ImageLinks.SmallThumbnail
	}
	// The API serves http:// thumbnail links; upgrade them.
	thumbnail = strings.Replace(thumbnail, "http://", "https://", 1)

	var isbn string
	for _, ident := range i.VolumeInfo.IndustryIdentifiers {
		if ident.Type == "ISBN_13" {
			isbn = ident.Identifier
			break
		}
		if ident.Type == "ISBN_10" && isbn == "" {
			isbn = ident.Identifier
		}
	}

	return Volume{
		ID:           i.ID,
		Title:        i.VolumeInfo.Title,
		Authors:      i.VolumeInfo.Authors,
		Description:  i.VolumeInfo.Description,
		PageCount:    i.VolumeInfo.PageCount,
		Categories:   i.VolumeInfo.Categories,
		ThumbnailURL: thumbnail,
		ISBN:         isbn,
	}
}
