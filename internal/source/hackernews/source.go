package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pagecache/internal/domain"
)

const (
	SourceID   = "hn"
	SourceName = "Hacker News"

	defaultBaseURL = "https://hacker-news.firebaseio.com/v0"
)

var firstPageKey = "0"

// Config holds Hacker News source configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Source pages through the Hacker News top-story list. The page key is a
// page number into the story ID list; within one load call the list is
// fetched once, so an append is consistent with the ids it already paged
// through as long as the list hasn't rotated underneath.
type Source struct {
	httpClient *http.Client
	baseURL    string
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
		logger:     logger.With("source", SourceID),
	}
}

func (s *Source) Meta() domain.SourceMeta {
	return domain.SourceMeta{
		ID:           SourceID,
		Name:         SourceName,
		FirstPageKey: &firstPageKey,
	}
}

func (s *Source) Fetch(ctx context.Context, req domain.LoadRequest) (*domain.DataResult, error) {
	page := 0
	if req.PageKey != nil {
		p, err := strconv.Atoi(*req.PageKey)
		if err != nil {
			return nil, fmt.Errorf("parse page key %q: %w", *req.PageKey, err)
		}
		page = p
	}

	ids, err := s.fetchStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch story ids: %w", err)
	}

	start := page * req.Limit
	if start > len(ids) {
		start = len(ids)
	}
	end := start + req.Limit
	if end > len(ids) {
		end = len(ids)
	}

	s.logger.Debug("fetching stories", "page", page, "start", start, "end", end)

	items := make([]domain.ContentItem, 0, end-start)
	for _, id := range ids[start:end] {
		story, err := s.fetchStory(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch story %d: %w", id, err)
		}
		// Some HN items are deleted or empty junk.
		if story.Deleted || story.Dead || story.Title == "" {
			continue
		}
		items = append(items, s.transform(story, len(items)+req.PageOffset))
	}

	var nextPageKey *string
	if len(items) > 0 {
		key := strconv.Itoa(page + 1)
		nextPageKey = &key
	}

	return &domain.DataResult{Items: items, NextPageKey: nextPageKey}, nil
}

func (s *Source) fetchStoryIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.getJSON(ctx, s.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Source) fetchStory(ctx context.Context, id int64) (*Story, error) {
	var story Story
	if err := s.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", s.baseURL, id), &story); err != nil {
		return nil, err
	}
	return &story, nil
}

func (s *Source) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *Source) transform(story *Story, index int) domain.ContentItem {
	commentsURL := fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)

	clickURL := story.URL
	if clickURL == "" {
		// Ask/Show posts without an external link point at the thread.
		clickURL = commentsURL
	}

	scoreLabel := "+"
	ts := time.Unix(story.Time, 0).UTC()

	item := domain.ContentItem{
		ID:              story.ID,
		SourceID:        SourceID,
		Title:           story.Title,
		Author:          &story.By,
		ScoreLabel:      &scoreLabel,
		ScoreValue:      &story.Score,
		Timestamp:       &ts,
		ClickURL:        &clickURL,
		MarkClickURL:    &commentsURL,
		IndexInResponse: index,
	}

	if u, err := url.Parse(story.URL); err == nil && u.Host != "" {
		host := u.Host
		item.Source = &host
	}
	if story.Type != "" && story.Type != "story" {
		tag := story.Type
		item.Tag = &tag
	}

	return item
}
