// Package render turns a batch of stories into text cards, a Markdown digest,
// or the HTML search page.
package render

import (
	"bytes"
	"embed"
	"errors"
	htmltemplate "html/template"
	"io"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"hn-frontpage/internal/algolia"
	"hn-frontpage/internal/model"
)

// PageTitle is the heading shared by every presentation.
const PageTitle = "Top 100 Hacker News Stories"

//go:embed templates/*
var templatesFS embed.FS

var funcs = map[string]any{
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return humanize.Time(t)
	},
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"inc":   func(i int) int { return i + 1 },
}

var (
	cardsTpl  = template.Must(template.New("cards.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/cards.tmpl"))
	digestTpl = template.Must(template.New("digest.md.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/digest.md.tmpl"))
	pageTpl   = htmltemplate.Must(htmltemplate.New("page.html.tmpl").Funcs(funcs).ParseFS(templatesFS, "templates/page.html.tmpl"))
)

// Cards writes one plain-text card per story.
func Cards(w io.Writer, stories []model.Story, query string) error {
	return cardsTpl.Execute(w, struct {
		Title   string
		Query   string
		Stories []model.Story
	}{PageTitle, query, stories})
}

// DigestMeta is written as YAML frontmatter at the top of a digest.
type DigestMeta struct {
	Title     string    `yaml:"title"`
	Query     string    `yaml:"query,omitempty"`
	Count     int       `yaml:"count"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// Digest writes the stories as Markdown with YAML frontmatter.
func Digest(w io.Writer, stories []model.Story, meta DigestMeta) error {
	if strings.TrimSpace(meta.Title) == "" {
		meta.Title = PageTitle
	}
	meta.Count = len(stories)
	meta.FetchedAt = meta.FetchedAt.UTC()
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return digestTpl.Execute(w, struct {
		Frontmatter string
		Title       string
		Stories     []model.Story
	}{string(fm), meta.Title, stories})
}

// PageData feeds the HTML page.
type PageData struct {
	Query   string
	Pending bool
	Error   string
	Stories []model.Story
	Total   int
}

// Page writes the HTML search page. A non-empty Error replaces the grid.
func Page(w io.Writer, d PageData) error {
	var buf bytes.Buffer
	if err := pageTpl.Execute(&buf, struct {
		Title string
		PageData
	}{PageTitle, d}); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// ErrorMessage is the single human-readable line shown in place of the stories.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *algolia.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case algolia.KindHTTPStatus:
			return "Failed to fetch stories (HTTP " + strconv.Itoa(fe.StatusCode) + ")"
		case algolia.KindNetwork:
			return "Failed to fetch stories: the search service could not be reached"
		case algolia.KindMalformedResponse:
			return "Failed to fetch stories: the search service sent an unexpected response"
		}
	}
	return "Failed to fetch stories: " + err.Error()
}
