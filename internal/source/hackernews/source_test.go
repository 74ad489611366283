package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagecache/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T, ids []int64, stories map[int64]Story) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/topstories.json":
			json.NewEncoder(w).Encode(ids)
		case strings.HasPrefix(r.URL.Path, "/item/"):
			var id int64
			fmt.Sscanf(r.URL.Path, "/item/%d.json", &id)
			story, ok := stories[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			json.NewEncoder(w).Encode(story)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testStory(id int64, title string) Story {
	return Story{
		ID:    id,
		Title: title,
		By:    "tester",
		Score: 100,
		Time:  1700000000,
		Type:  "story",
		URL:   fmt.Sprintf("https://example.com/%d", id),
	}
}

func TestFetch_FirstPage(t *testing.T) {
	ids := []int64{1, 2, 3, 4}
	stories := map[int64]Story{
		1: testStory(1, "first"),
		2: testStory(2, "second"),
		3: testStory(3, "third"),
		4: testStory(4, "fourth"),
	}
	srv := newTestServer(t, ids, stories)
	src := New(Config{BaseURL: srv.URL}, testLogger())

	key := "0"
	result, err := src.Fetch(context.Background(), domain.LoadRequest{
		PageKey: &key,
		Limit:   2,
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "first", result.Items[0].Title)
	assert.Equal(t, "second", result.Items[1].Title)
	assert.Equal(t, 0, result.Items[0].IndexInResponse)
	assert.Equal(t, 1, result.Items[1].IndexInResponse)

	require.NotNil(t, result.NextPageKey)
	assert.Equal(t, "1", *result.NextPageKey)
}

func TestFetch_SecondPageContinuesIndex(t *testing.T) {
	ids := []int64{1, 2, 3, 4}
	stories := map[int64]Story{
		1: testStory(1, "first"),
		2: testStory(2, "second"),
		3: testStory(3, "third"),
		4: testStory(4, "fourth"),
	}
	srv := newTestServer(t, ids, stories)
	src := New(Config{BaseURL: srv.URL}, testLogger())

	key := "1"
	result, err := src.Fetch(context.Background(), domain.LoadRequest{
		PageKey:    &key,
		Limit:      2,
		PageOffset: 2,
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "third", result.Items[0].Title)
	assert.Equal(t, 2, result.Items[0].IndexInResponse)
	assert.Equal(t, 3, result.Items[1].IndexInResponse)
}

func TestFetch_SkipsDeletedAndDead(t *testing.T) {
	ids := []int64{1, 2, 3}
	dead := testStory(2, "dead one")
	dead.Dead = true
	deleted := testStory(3, "")
	deleted.Deleted = true
	stories := map[int64]Story{
		1: testStory(1, "alive"),
		2: dead,
		3: deleted,
	}
	srv := newTestServer(t, ids, stories)
	src := New(Config{BaseURL: srv.URL}, testLogger())

	key := "0"
	result, err := src.Fetch(context.Background(), domain.LoadRequest{
		PageKey: &key,
		Limit:   3,
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "alive", result.Items[0].Title)
}

func TestFetch_PastEndExhausts(t *testing.T) {
	ids := []int64{1}
	stories := map[int64]Story{1: testStory(1, "only")}
	srv := newTestServer(t, ids, stories)
	src := New(Config{BaseURL: srv.URL}, testLogger())

	key := "5"
	result, err := src.Fetch(context.Background(), domain.LoadRequest{
		PageKey: &key,
		Limit:   10,
	})
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Nil(t, result.NextPageKey)
}

func TestFetch_ThreadOnlyPostLinksToComments(t *testing.T) {
	ids := []int64{7}
	ask := testStory(7, "Ask HN: something")
	ask.URL = ""
	stories := map[int64]Story{7: ask}
	srv := newTestServer(t, ids, stories)
	src := New(Config{BaseURL: srv.URL}, testLogger())

	key := "0"
	result, err := src.Fetch(context.Background(), domain.LoadRequest{
		PageKey: &key,
		Limit:   1,
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	item := result.Items[0]
	require.NotNil(t, item.ClickURL)
	assert.Equal(t, "https://news.ycombinator.com/item?id=7", *item.ClickURL)
	require.NotNil(t, item.MarkClickURL)
	assert.Equal(t, *item.ClickURL, *item.MarkClickURL)
}
