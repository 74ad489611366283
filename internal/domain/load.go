package domain

import "fmt"

// LoadType is the direction of a page load requested by a paging consumer.
type LoadType int

const (
	LoadRefresh LoadType = iota
	LoadPrepend
	LoadAppend
)

func (t LoadType) String() string {
	switch t {
	case LoadRefresh:
		return "refresh"
	case LoadPrepend:
		return "prepend"
	case LoadAppend:
		return "append"
	default:
		return fmt.Sprintf("loadtype(%d)", int(t))
	}
}

// LoadRequest describes one fetch against a source.
type LoadRequest struct {
	PageKey     *string
	PageOffset  int
	Limit       int
	UseFakeData bool
}

// DataResult is one fetched page. A nil NextPageKey signals the source has
// no further pages.
type DataResult struct {
	Items       []ContentItem
	NextPageKey *string
}

// LoadResult is the outcome of a successful load.
type LoadResult struct {
	EndOfPagination bool
}

// InitializeAction tells the paging consumer whether cached data is fresh
// enough to skip the automatic startup refresh.
type InitializeAction int

const (
	LaunchInitialRefresh InitializeAction = iota
	SkipInitialRefresh
)

func (a InitializeAction) String() string {
	if a == SkipInitialRefresh {
		return "skip_initial_refresh"
	}
	return "launch_initial_refresh"
}

// SourceMeta describes a content source.
type SourceMeta struct {
	ID               string
	Name             string
	FirstPageKey     *string
	IsVisual         bool
	SupportsFakeData bool
}

// Mode selects how a page stream is backed.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
	ModeFake    Mode = "fake"
)

// ParseMode maps a config string to a Mode, defaulting to online.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOnline, "":
		return ModeOnline, nil
	case ModeOffline:
		return ModeOffline, nil
	case ModeFake:
		return ModeFake, nil
	default:
		return ModeOnline, fmt.Errorf("unknown mode %q", s)
	}
}
