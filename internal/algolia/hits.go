package algolia

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"hn-frontpage/internal/model"
)

// hit mirrors the subset of search hit fields we care about.
type hit struct {
	ObjectID    json.RawMessage `json:"objectID"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	Author      string          `json:"author"`
	Points      int             `json:"points"`
	NumComments int             `json:"num_comments"`
	CreatedAt   string          `json:"created_at"`
	CreatedAtI  int64           `json:"created_at_i"`
}

// decodeStories validates the response document and converts its hits.
// The body is only ever inspected here; callers see stories or a *FetchError.
func decodeStories(body []byte) ([]model.Story, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, malformed("decode body: %w", err)
	}
	if doc == nil {
		return nil, malformed("body is not an object")
	}
	raw, ok := doc["hits"]
	if !ok {
		return nil, malformed("missing hits")
	}
	var hits []json.RawMessage
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, malformed("hits: %w", err)
	}
	if hits == nil {
		return nil, malformed("hits is null")
	}

	stories := make([]model.Story, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for i, h := range hits {
		if !bytes.HasPrefix(bytes.TrimSpace(h), []byte("{")) {
			return nil, malformed("hit %d is not an object", i)
		}
		var it hit
		if err := json.Unmarshal(h, &it); err != nil {
			return nil, malformed("hit %d: %w", i, err)
		}
		id := objectID(it.ObjectID)
		if id == "" {
			return nil, malformed("hit %d has no objectID", i)
		}
		if _, dup := seen[id]; dup {
			slog.Warn("algolia: duplicate objectID dropped", "id", id, "index", i)
			continue
		}
		seen[id] = struct{}{}
		stories = append(stories, convertHit(id, it))
	}
	return stories, nil
}

// objectID accepts both string and numeric identifiers.
func objectID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// convertHit maps a validated hit to our Story model.
func convertHit(id string, h hit) model.Story {
	return model.Story{
		ID:          id,
		Title:       h.Title,
		URL:         strings.TrimSpace(h.URL),
		Points:      max(h.Points, 0),
		Author:      strings.TrimSpace(h.Author),
		CreatedAt:   createdAt(h),
		NumComments: max(h.NumComments, 0),
	}
}

func createdAt(h hit) time.Time {
	if s := strings.TrimSpace(h.CreatedAt); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
	}
	if h.CreatedAtI > 0 {
		return time.Unix(h.CreatedAtI, 0).UTC()
	}
	return time.Time{}
}
