package rss

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/url"

	"github.com/mmcdole/gofeed"

	"pagecache/internal/domain"
)

// Config holds RSS source configuration.
type Config struct {
	ID      string
	Name    string
	FeedURL string
}

// Source serves a single RSS/Atom feed. A feed is one page deep: the whole
// document arrives at once, so the next-page key is always nil and
// pagination exhausts after the first load.
type Source struct {
	id      string
	name    string
	feedURL string
	parser  *gofeed.Parser
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		id:      cfg.ID,
		name:    cfg.Name,
		feedURL: cfg.FeedURL,
		parser:  gofeed.NewParser(),
		logger:  logger.With("source", cfg.ID),
	}
}

func (s *Source) Meta() domain.SourceMeta {
	return domain.SourceMeta{
		ID:           s.id,
		Name:         s.name,
		FirstPageKey: nil,
	}
}

func (s *Source) Fetch(ctx context.Context, req domain.LoadRequest) (*domain.DataResult, error) {
	feed, err := s.parser.ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	s.logger.Debug("fetched feed", "entries", len(feed.Items))

	limit := req.Limit
	if limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	items := make([]domain.ContentItem, 0, limit)
	for i := 0; i < limit; i++ {
		items = append(items, s.transform(feed.Items[i], i+req.PageOffset))
	}

	return &domain.DataResult{Items: items, NextPageKey: nil}, nil
}

func (s *Source) transform(entry *gofeed.Item, index int) domain.ContentItem {
	item := domain.ContentItem{
		ID:              hashID(entryKey(entry)),
		SourceID:        s.id,
		Title:           entry.Title,
		IndexInResponse: index,
	}

	if entry.Description != "" {
		description := entry.Description
		item.Description = &description
	}
	if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
		author := entry.Authors[0].Name
		item.Author = &author
	}
	if entry.Link != "" {
		link := entry.Link
		item.ClickURL = &link
		if u, err := url.Parse(link); err == nil && u.Host != "" {
			host := u.Host
			item.Source = &host
		}
	}
	if entry.PublishedParsed != nil {
		ts := entry.PublishedParsed.UTC()
		item.Timestamp = &ts
	} else if entry.UpdatedParsed != nil {
		ts := entry.UpdatedParsed.UTC()
		item.Timestamp = &ts
	}
	if len(entry.Categories) > 0 {
		tag := entry.Categories[0]
		item.Tag = &tag
	}

	return item
}

func entryKey(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	return entry.Link
}

func hashID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}
