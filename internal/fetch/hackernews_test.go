package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/config"
)

func newHNServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[1, 2, 3]`)
	})
	mux.HandleFunc("/item/1.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"type":"story","title":"Show HN: A thing","url":"https://example.com/thing","score":120,"descendants":45,"time":1748770200}`)
	})
	mux.HandleFunc("/item/2.json", func(w http.ResponseWriter, r *http.Request) {
		// Below min score.
		fmt.Fprint(w, `{"id":2,"type":"story","title":"Quiet story","score":3,"time":1748770200}`)
	})
	mux.HandleFunc("/item/3.json", func(w http.ResponseWriter, r *http.Request) {
		// Ask HN without an external URL.
		fmt.Fprint(w, `{"id":3,"type":"story","title":"Ask HN: What?","text":"details here","score":80,"descendants":12,"time":1748770200}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHackerNewsFetch(t *testing.T) {
	server := newHNServer(t)
	hn := NewHackerNews(config.HackerNewsConfig{Limit: 10, MinScore: 10}, nil)
	hn.BaseURL = server.URL
	hn.HTTPClient = server.Client()

	articles, err := hn.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("articles = %+v, want 2 (min score filter)", articles)
	}

	first := articles[0]
	if first.ID != "hackernews-1" || first.Source != "hackernews" {
		t.Errorf("identity fields = %+v", first)
	}
	if first.URL != "https://example.com/thing" {
		t.Errorf("url = %s", first.URL)
	}
	if first.Engagement != 120 || first.CommentCount != 45 {
		t.Errorf("engagement = %d comments = %d", first.Engagement, first.CommentCount)
	}
	if _, err := time.Parse(time.RFC3339, first.PublishedAt); err != nil {
		t.Errorf("published_at = %q not RFC3339", first.PublishedAt)
	}

	// The Ask HN story falls back to its discussion page URL.
	if articles[1].URL != "https://news.ycombinator.com/item?id=3" {
		t.Errorf("ask hn url = %s", articles[1].URL)
	}
	if articles[1].Text != "details here" {
		t.Errorf("ask hn text = %q", articles[1].Text)
	}
}

func TestHackerNewsFetchLimit(t *testing.T) {
	server := newHNServer(t)
	hn := NewHackerNews(config.HackerNewsConfig{Limit: 1, MinScore: 10}, nil)
	hn.BaseURL = server.URL
	hn.HTTPClient = server.Client()

	articles, err := hn.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 {
		t.Errorf("articles = %d, want limit of 1", len(articles))
	}
}

func TestHackerNewsFetchTopStoriesDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	hn := NewHackerNews(config.HackerNewsConfig{Limit: 10, MinScore: 10}, nil)
	hn.BaseURL = server.URL
	hn.HTTPClient = server.Client()

	if _, err := hn.Fetch(context.Background()); err == nil {
		t.Error("Fetch with failing topstories = nil error")
	}
}
