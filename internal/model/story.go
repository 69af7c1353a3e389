package model

import (
	"time"
)

// DiscussionBase is the Hacker News item page used for discussion links.
const DiscussionBase = "https://news.ycombinator.com/item?id="

// Story represents a single front-page story from the search API.
type Story struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Points      int       `json:"points"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	NumComments int       `json:"num_comments"`
}

// DisplayTime renders CreatedAt in local time, or "" when unknown.
func (s Story) DisplayTime() string {
	if s.CreatedAt.IsZero() {
		return ""
	}
	return s.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM")
}

// DiscussionURL points at the story's comment thread.
func (s Story) DiscussionURL() string {
	return DiscussionBase + s.ID
}

// Link returns the external URL, falling back to the discussion page for text posts.
func (s Story) Link() string {
	if s.URL != "" {
		return s.URL
	}
	return s.DiscussionURL()
}
