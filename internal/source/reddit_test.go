package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hotListing = `{
  "kind": "Listing",
  "data": {
    "after": null,
    "children": [
      {"kind": "t3", "data": {
        "id": "p1",
        "title": "Inventory sync keeps failing",
        "selftext": "I update stock by hand every day. It is **tedious**.",
        "selftext_html": "&lt;div class=\"md\"&gt;&lt;p&gt;I update stock by hand every day. It is &lt;strong&gt;tedious&lt;/strong&gt;.&lt;/p&gt;&lt;/div&gt;",
        "subreddit": "shopify",
        "permalink": "/r/shopify/comments/p1/inventory_sync/",
        "author": "storeowner",
        "score": 42,
        "num_comments": 5,
        "created_utc": 1700000000
      }},
      {"kind": "t3", "data": {
        "id": "p2",
        "title": "Show off my new store",
        "selftext": "Just launched, feedback welcome",
        "selftext_html": null,
        "subreddit": "shopify",
        "permalink": "/r/shopify/comments/p2/show_off/",
        "author": "",
        "score": 3,
        "created_utc": 1700000100
      }},
      {"kind": "more", "data": {"id": "zzz"}}
    ]
  }
}`

const p1Comments = `[
  {"kind": "Listing", "data": {"children": []}},
  {"kind": "Listing", "data": {"children": [
    {"kind": "t1", "data": {"id": "c1", "body": "Same problem here, it costs us money", "author": "peer", "score": 12, "created_utc": 1700000200}},
    {"kind": "t1", "data": {"id": "c2", "body": "[deleted]", "author": "", "score": 1}},
    {"kind": "t1", "data": {"id": "c3", "body": "ok", "author": "short", "score": 5}},
    {"kind": "t1", "data": {"id": "c4", "body": "Low score comment about slow shipping", "author": "grump", "score": -5}},
    {"kind": "more", "data": {"id": "m1"}}
  ]}}
]`

const p2Comments = `[
  {"kind": "Listing", "data": {"children": []}},
  {"kind": "Listing", "data": {"children": [
    {"kind": "t1", "data": {"id": "c9", "body": "Looks great, congrats on the launch", "author": "fan", "score": 2}}
  ]}}
]`

func newRedditServer(t *testing.T, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/r/shopify/hot.json":
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(hotListing))
		case "/comments/p1.json":
			assert.Equal(t, "1", r.URL.Query().Get("depth"))
			_, _ = w.Write([]byte(p1Comments))
		case "/comments/p2.json":
			_, _ = w.Write([]byte(p2Comments))
		case "/r/broken/hot.json":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
}

func defaultRedditOptions(baseURL string) RedditOptions {
	return RedditOptions{
		BaseURL:          baseURL,
		Subreddits:       []string{"shopify"},
		Listing:          "hot",
		MaxPosts:         10,
		MaxComments:      5,
		PrefilterMinHits: 2,
		PostEngagement:   true,
	}
}

func TestReddit_Fetch(t *testing.T) {
	var requests atomic.Int32
	server := newRedditServer(t, &requests)
	defer server.Close()

	r := NewReddit(newTestFetcher(FetcherOptions{}), defaultRedditOptions(server.URL), nil)
	items, err := r.Fetch(context.Background())
	require.NoError(t, err)

	// p2 has no crawler keyword hits and is dropped by the prefilter
	require.Len(t, items, 1)
	item := items[0]

	assert.Equal(t, "reddit_p1", item.ID)
	assert.Equal(t, "Inventory sync keeps failing", item.Title)
	assert.Equal(t, "I update stock by hand every day. It is tedious .", item.Body)
	assert.Equal(t, "shopify", item.Subreddit)
	assert.Equal(t, server.URL+"/r/shopify/comments/p1/inventory_sync/", item.URL)
	assert.Equal(t, "storeowner", item.Author)
	assert.Equal(t, int64(1700000000), item.Created.Unix())
	require.NotNil(t, item.Engagement)
	assert.Equal(t, 42.0, *item.Engagement)

	// Deleted, short and below-threshold comments are skipped
	require.Len(t, item.Replies, 1)
	assert.Equal(t, "reddit_c1", item.Replies[0].ID)
	assert.Equal(t, 12.0, item.Replies[0].Engagement)
	assert.Equal(t, "Same problem here, it costs us money", item.Replies[0].Body)
}

func TestReddit_PrefilterDisabled(t *testing.T) {
	var requests atomic.Int32
	server := newRedditServer(t, &requests)
	defer server.Close()

	opts := defaultRedditOptions(server.URL)
	opts.PrefilterMinHits = 0
	opts.PostEngagement = false

	items, err := NewReddit(newTestFetcher(FetcherOptions{}), opts, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Nil(t, items[0].Engagement, "post engagement off")
	assert.Equal(t, "deleted", items[1].Author)
	assert.Equal(t, "Just launched, feedback welcome", items[1].Body)
}

func TestReddit_NoComments(t *testing.T) {
	var requests atomic.Int32
	server := newRedditServer(t, &requests)
	defer server.Close()

	opts := defaultRedditOptions(server.URL)
	opts.MaxComments = 0
	opts.PrefilterMinHits = 0

	items, err := NewReddit(newTestFetcher(FetcherOptions{}), opts, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Empty(t, items[0].Replies)
	assert.Equal(t, int32(1), requests.Load(), "only the listing is requested")
}

func TestReddit_MinBodyLength(t *testing.T) {
	var requests atomic.Int32
	server := newRedditServer(t, &requests)
	defer server.Close()

	opts := defaultRedditOptions(server.URL)
	opts.PrefilterMinHits = 0
	opts.MinBodyLength = 40

	items, err := NewReddit(newTestFetcher(FetcherOptions{}), opts, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "reddit_p1", items[0].ID)
}

func TestReddit_FailingSubredditIsSkipped(t *testing.T) {
	var requests atomic.Int32
	server := newRedditServer(t, &requests)
	defer server.Close()

	opts := defaultRedditOptions(server.URL)
	opts.Subreddits = []string{"broken", "shopify"}

	items, err := NewReddit(newTestFetcher(FetcherOptions{}), opts, nil).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "r/broken")
	assert.Len(t, items, 1, "the healthy subreddit is still crawled")
}

func TestReddit_URLs(t *testing.T) {
	r := NewReddit(nil, RedditOptions{
		BaseURL:     "https://www.reddit.com/",
		Listing:     "top",
		TimeFilter:  "month",
		Search:      `flair:"Help"`,
		MaxPosts:    25,
		MaxComments: 5,
	}, nil)

	assert.Equal(t, "https://www.reddit.com/r/ecommerce/top.json?limit=25&t=month", r.listingURL("ecommerce"))
	assert.True(t, strings.HasPrefix(r.searchURL("ecommerce"), "https://www.reddit.com/r/ecommerce/search.json?"))
	assert.Contains(t, r.searchURL("ecommerce"), "restrict_sr=1")
	assert.Equal(t, "https://www.reddit.com/comments/abc.json?depth=1&limit=10&sort=top", r.commentsURL("abc"))
}
