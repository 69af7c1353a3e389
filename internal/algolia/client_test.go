package algolia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"hn-frontpage/internal/model"
)

const twoHits = `{
  "hits": [
    {"objectID": "101", "title": "Rust is great", "url": "https://example.com/rust", "points": 10,
     "author": "alice", "num_comments": 3, "created_at": "2024-05-01T12:30:00.000Z", "created_at_i": 1714566600},
    {"objectID": "102", "title": "Go routines", "url": null, "points": 5, "author": "bob",
     "created_at": "2024-05-01T13:00:00Z"}
  ],
  "nbHits": 2
}`

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFetchMapsHitsInOrder(t *testing.T) {
	srv, calls := newTestServer(t, http.StatusOK, twoHits)
	c := NewClient(srv.URL)

	got, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	want := []model.Story{
		{
			ID: "101", Title: "Rust is great", URL: "https://example.com/rust", Points: 10,
			Author: "alice", NumComments: 3, CreatedAt: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		},
		{
			ID: "102", Title: "Go routines", Points: 5, Author: "bob",
			CreatedAt: time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stories mismatch (-want +got):\n%s", diff)
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Errorf("expected exactly one request, got %d", n)
	}
}

func TestFetchSendsFixedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tags"); got != "front_page" {
			t.Errorf("tags = %q", got)
		}
		if got := r.URL.Query().Get("hitsPerPage"); got != "100" {
			t.Errorf("hitsPerPage = %q", got)
		}
		_, _ = w.Write([]byte(`{"hits":[]}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL + "/").Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil batch, got %#v", got)
	}
}

func TestFetchHTTPStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusInternalServerError, `{"message":"boom"}`)

	stories, err := NewClient(srv.URL).Fetch(context.Background())
	if stories != nil {
		t.Errorf("expected no stories, got %d", len(stories))
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T %v", err, err)
	}
	if fe.Kind != KindHTTPStatus || fe.StatusCode != 500 {
		t.Errorf("got kind=%v status=%d", fe.Kind, fe.StatusCode)
	}
	if !errors.Is(err, ErrHTTPStatus) || errors.Is(err, ErrMalformedResponse) {
		t.Errorf("errors.Is mismatch for %v", err)
	}
}

func TestFetchMalformed(t *testing.T) {
	cases := map[string]string{
		"missing hits":      `{"results":[]}`,
		"hits null":         `{"hits":null}`,
		"hits not array":    `{"hits":{"a":1}}`,
		"not json":          `<html>oops</html>`,
		"top-level array":   `[{"objectID":"1"}]`,
		"top-level null":    `null`,
		"hit not object":    `{"hits":["x"]}`,
		"hit without id":    `{"hits":[{"title":"no id"}]}`,
		"points wrong type": `{"hits":[{"objectID":"1","points":"many"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusOK, body)
			_, err := NewClient(srv.URL).Fetch(context.Background())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected malformed response, got %v", err)
			}
		})
	}
}

func TestFetchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Fetch(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
}

func TestFetchTimeoutIsNetworkFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, WithTimeout(50*time.Millisecond)).Fetch(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network failure on timeout, got %v", err)
	}
}

func TestFetchOptionalFields(t *testing.T) {
	body := `{"hits":[
	  {"objectID": 7, "title": null, "points": null, "created_at_i": 1700000000},
	  {"objectID": "8", "title": "dup a", "points": -3},
	  {"objectID": "8", "title": "dup b"}
	]}`
	srv, _ := newTestServer(t, http.StatusOK, body)

	got, err := NewClient(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	want := []model.Story{
		{ID: "7", CreatedAt: time.Unix(1700000000, 0).UTC()},
		{ID: "8", Title: "dup a"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stories mismatch (-want +got):\n%s", diff)
	}
}

func TestWithQuery(t *testing.T) {
	c := NewClient("", WithQuery("story", 30))
	if c.Tags() != "story" || c.HitsPerPage() != 30 {
		t.Errorf("got tags=%q hits=%d", c.Tags(), c.HitsPerPage())
	}
	c = NewClient("", WithQuery("  ", 0))
	if c.Tags() != DefaultTags || c.HitsPerPage() != DefaultHitsPerPage {
		t.Errorf("blank overrides should keep defaults, got %q/%d", c.Tags(), c.HitsPerPage())
	}
}
