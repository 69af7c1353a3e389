package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeSearch(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestFetchJSON(t *testing.T) {
	srv := fakeSearch(t, http.StatusOK, `{"hits":[
	  {"objectID":"1","title":"Rust is great","points":10},
	  {"objectID":"2","title":"Go routines","points":5}
	]}`)
	t.Setenv("HNFP_SOURCE_BASE_URL", srv.URL)

	out, _, err := execute(t, "fetch", "--format", "json", "--query", "go", "--limit", "0")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var got struct {
		Query   string `json:"query"`
		Count   int    `json:"count"`
		Total   int    `json:"total"`
		Stories []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"stories"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not json: %v\n%s", err, out)
	}
	if got.Query != "go" || got.Count != 1 || got.Total != 2 || got.Stories[0].ID != "2" {
		t.Errorf("unexpected output %+v", got)
	}
}

func TestSearchFailure(t *testing.T) {
	srv := fakeSearch(t, http.StatusInternalServerError, `oops`)
	t.Setenv("HNFP_SOURCE_BASE_URL", srv.URL)

	_, errOut, err := execute(t, "search", "--format", "text", "go")
	if err == nil {
		t.Fatal("expected an error for HTTP 500")
	}
	if !strings.Contains(errOut, "Failed to fetch stories (HTTP 500)") {
		t.Errorf("stderr missing message: %q", errOut)
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, _, err := execute(t, "fetch", "--format", "xml"); err == nil {
		t.Fatal("expected an error for unknown format")
	}
}
