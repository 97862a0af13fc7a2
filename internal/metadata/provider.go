// Package metadata resolves submitted song references into canonical
// title/artist/preview data via an external lookup API. The game core
// treats it as opaque; a failed lookup only fails that one submission.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tuneclash/tuneclash-backend/internal"
)

// ErrLookupFailed wraps every provider-side failure so callers can treat
// them uniformly as non-fatal.
var ErrLookupFailed = errors.New("metadata lookup failed")

type Provider interface {
	// Resolve maps a single track reference to its canonical metadata.
	Resolve(ctx context.Context, ref string) (*internal.Track, error)
	// Search returns candidate tracks for a free-text query.
	Search(ctx context.Context, query string) ([]internal.Track, error)
}

const (
	defaultBaseURL     = "https://api.deezer.com"
	defaultSearchLimit = 10
)

type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type apiTrack struct {
	ID      json.Number `json:"id"`
	Title   string      `json:"title"`
	Preview string      `json:"preview"`
	Artist  struct {
		Name string `json:"name"`
	} `json:"artist"`
}

type apiSearchResult struct {
	Data []apiTrack `json:"data"`
}

func (t apiTrack) toTrack() internal.Track {
	return internal.Track{
		ID:         t.ID.String(),
		Title:      t.Title,
		Artist:     t.Artist.Name,
		PreviewRef: t.Preview,
	}
}

func (p *HTTPProvider) Resolve(ctx context.Context, ref string) (*internal.Track, error) {
	var out apiTrack
	if err := p.getJSON(ctx, "/track/"+url.PathEscape(ref), &out); err != nil {
		return nil, err
	}
	if out.Title == "" {
		return nil, fmt.Errorf("%w: track %q has no metadata", ErrLookupFailed, ref)
	}

	track := out.toTrack()
	return &track, nil
}

func (p *HTTPProvider) Search(ctx context.Context, query string) ([]internal.Track, error) {
	path := "/search?q=" + url.QueryEscape(query) + "&limit=" + strconv.Itoa(defaultSearchLimit)

	var out apiSearchResult
	if err := p.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}

	tracks := make([]internal.Track, 0, len(out.Data))
	for _, t := range out.Data {
		tracks = append(tracks, t.toTrack())
	}
	return tracks, nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: provider returned %d", ErrLookupFailed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	return nil
}
