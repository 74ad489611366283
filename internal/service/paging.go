package service

import "pagecache/internal/domain"

// PagingConfig mirrors the paging consumer's page sizing.
type PagingConfig struct {
	PageSize        int
	InitialLoadSize int
}

// PagingState is a snapshot of what the paging consumer currently holds.
// The mediator reads it to compute append offsets; it never mutates it.
type PagingState struct {
	Pages  [][]domain.ContentItem
	Config PagingConfig
}

// LastItem returns the most recently loaded item, or nil when nothing is
// loaded yet.
func (s PagingState) LastItem() *domain.ContentItem {
	for i := len(s.Pages) - 1; i >= 0; i-- {
		page := s.Pages[i]
		if len(page) > 0 {
			return &page[len(page)-1]
		}
	}
	return nil
}

// PageCount reports how many pages the consumer holds.
func (s PagingState) PageCount() int {
	return len(s.Pages)
}
