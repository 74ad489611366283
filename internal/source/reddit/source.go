package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"pagecache/internal/domain"
)

const (
	SourceID   = "reddit"
	SourceName = "Reddit"

	defaultBaseURL = "https://www.reddit.com"
	userAgent      = "pagecache/1.0"

	// 2020-01-01T00:00:00Z, the timestamp all fake posts carry.
	fakeCreatedUTC = 1577836800
)

// Config holds Reddit source configuration.
type Config struct {
	BaseURL   string
	Subreddit string // empty means the front page
	Timeout   time.Duration
}

// Source pages the Reddit listing API. Reddit's native `after` token is
// the pagination cursor; the API reports the end of the list by returning
// an empty token.
type Source struct {
	httpClient *http.Client
	baseURL    string
	subreddit  string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Source{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		subreddit:  cfg.Subreddit,
		logger:     logger.With("source", SourceID),
	}
}

func (s *Source) Meta() domain.SourceMeta {
	// A nil first page key fetches the first listing page.
	return domain.SourceMeta{
		ID:               SourceID,
		Name:             SourceName,
		FirstPageKey:     nil,
		SupportsFakeData: true,
	}
}

func (s *Source) Fetch(ctx context.Context, req domain.LoadRequest) (*domain.DataResult, error) {
	if req.UseFakeData {
		return s.fakeListing(req), nil
	}

	listing, err := s.fetchListing(ctx, req.PageKey, req.Limit)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ContentItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Data.Stickied {
			continue
		}
		items = append(items, s.transform(child.Data, len(items)+req.PageOffset))
	}

	var nextPageKey *string
	if listing.Data.After != "" {
		after := listing.Data.After
		nextPageKey = &after
	}

	return &domain.DataResult{Items: items, NextPageKey: nextPageKey}, nil
}

// fakeListing synthesizes a deterministic page shaped like real listing
// output. Demo builds page through it without touching the network; a
// single page is served, then pagination exhausts.
func (s *Source) fakeListing(req domain.LoadRequest) *domain.DataResult {
	items := make([]domain.ContentItem, 0, req.Limit)
	for i := 0; i < req.Limit; i++ {
		n := req.PageOffset + i
		link := Link{
			ID:         fmt.Sprintf("fake%d", n),
			Title:      fmt.Sprintf("Lorem ipsum dolor sit amet %d", n),
			Author:     "lorem_ipsum",
			Domain:     "example.com",
			Subreddit:  "r/lorem",
			URL:        fmt.Sprintf("https://example.com/%d", n),
			Permalink:  fmt.Sprintf("/r/lorem/comments/fake%d/", n),
			Score:      int64(5 * (n + 1)),
			CreatedUTC: fakeCreatedUTC,
		}
		items = append(items, s.transform(link, n))
	}
	return &domain.DataResult{Items: items, NextPageKey: nil}
}

func (s *Source) fetchListing(ctx context.Context, after *string, limit int) (*Listing, error) {
	endpoint := s.baseURL + "/hot.json"
	if s.subreddit != "" {
		endpoint = fmt.Sprintf("%s/r/%s/hot.json", s.baseURL, s.subreddit)
	}

	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	if after != nil {
		query.Set("after", *after)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var listing Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &listing, nil
}

func (s *Source) transform(link Link, index int) domain.ContentItem {
	author := "/u/" + link.Author
	source := link.Domain
	if source == "" {
		source = "self"
	}
	scoreLabel := "+"
	ts := time.Unix(int64(link.CreatedUTC), 0).UTC()
	markClickURL := "https://reddit.com" + link.Permalink

	item := domain.ContentItem{
		ID:              hashID(link.ID),
		SourceID:        SourceID,
		Title:           link.Title,
		Author:          &author,
		Source:          &source,
		ScoreLabel:      &scoreLabel,
		ScoreValue:      &link.Score,
		Timestamp:       &ts,
		MarkClickURL:    &markClickURL,
		IndexInResponse: index,
	}

	if link.URL != "" {
		clickURL := link.URL
		item.ClickURL = &clickURL
	}
	if link.Subreddit != "" {
		tag := link.Subreddit
		item.Tag = &tag
	}

	return item
}

// hashID folds Reddit's base36 post id into the integer key space the
// cache uses.
func hashID(id string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return int64(h.Sum64())
}
