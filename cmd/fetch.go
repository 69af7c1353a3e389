package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"hn-frontpage/internal/model"
	"hn-frontpage/internal/render"
	"hn-frontpage/internal/session"

	"github.com/spf13/cobra"
)

var (
	fetchQuery  string
	fetchFormat string
	fetchLimit  int
)

// fetchCmd loads the front page once and prints the stories matching --query.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the front page and print matching stories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd, fetchQuery)
	},
}

// searchCmd is fetch with the query given as an argument.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fetch the front page and print stories whose title contains <query>",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd, strings.Join(args, " "))
	},
}

func runFetch(cmd *cobra.Command, query string) error {
	format := strings.ToLower(strings.TrimSpace(fetchFormat))
	switch format {
	case "text", "json", "markdown", "md":
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", fetchFormat)
	}

	cfg := GetConfig()
	timeout, err := sourceTimeout(cfg)
	if err != nil {
		return err
	}
	sess, release, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout+5*time.Second)
	defer cancel()

	st := sess.Load(ctx)
	if st.Phase != session.PhaseSuccess {
		if st.Err == nil {
			return fmt.Errorf("fetch did not complete (%s)", st.Phase)
		}
		cmd.PrintErrln(render.ErrorMessage(st.Err))
		return st.Err
	}
	stories := sess.SetQuery(query)
	if fetchLimit > 0 && len(stories) > fetchLimit {
		stories = stories[:fetchLimit]
	}
	return writeStories(cmd.OutOrStdout(), format, query, stories, st)
}

func writeStories(w io.Writer, format, query string, stories []model.Story, st session.Status) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query     string        `json:"query"`
			Count     int           `json:"count"`
			Total     int           `json:"total"`
			FetchedAt time.Time     `json:"fetched_at"`
			Stories   []model.Story `json:"stories"`
		}{query, len(stories), len(st.Stories), st.FetchedAt.UTC(), stories})
	case "markdown", "md":
		return render.Digest(w, stories, render.DigestMeta{Query: query, FetchedAt: st.FetchedAt})
	default:
		return render.Cards(w, stories, query)
	}
}

func init() {
	for _, c := range []*cobra.Command{fetchCmd, searchCmd} {
		c.Flags().StringVarP(&fetchFormat, "format", "f", "text", "output format: text, json or markdown")
		c.Flags().IntVarP(&fetchLimit, "limit", "n", 0, "print at most n stories (0 = all)")
		rootCmd.AddCommand(c)
	}
	fetchCmd.Flags().StringVarP(&fetchQuery, "query", "q", "", "case-insensitive title filter")
}
