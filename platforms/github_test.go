package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weaverhq/changelog-weaver/models"
)

func newGitHubTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/acme/rocket/labels", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"name": "bug", "color": "d73a4a"},
			{"name": "enhancement", "color": ""},
		})
	})

	mux.HandleFunc("/repos/acme/rocket/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			json.NewEncoder(w).Encode([]any{})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"number":   12,
				"title":    "<b>Crash</b> on startup",
				"state":    "closed",
				"body":     "Boom",
				"html_url": "https://github.com/acme/rocket/issues/12",
				"comments": 1,
				"labels":   []map[string]any{{"name": "bug", "color": "d73a4a"}},
			},
			{
				"number":       13,
				"title":        "Add dark mode",
				"state":        "closed",
				"html_url":     "https://github.com/acme/rocket/pull/13",
				"comments":     0,
				"labels":       []any{},
				"pull_request": map[string]any{"url": "https://api.github.com/repos/acme/rocket/pulls/13"},
			},
		})
	})

	mux.HandleFunc("/repos/acme/rocket/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"body": "fixed upstream", "created_at": "2026-01-02T10:00:00Z", "user": map[string]any{"login": "jane"}},
		})
	})

	mux.HandleFunc("/repos/acme/rocket/issues/99", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("/repos/acme/rocket/issues/12", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"number": 12, "title": "Crash on startup", "state": "closed",
			"html_url": "https://github.com/acme/rocket/issues/12",
		})
	})

	return httptest.NewServer(mux)
}

func newTestGitHubClient(t *testing.T) (*GitHubClient, func()) {
	t.Helper()
	srv := newGitHubTestServer(t)
	c := NewGitHubClient("acme", "rocket", "token", nil)
	c.apiURL = srv.URL
	return c, srv.Close
}

func TestGitHubClient_Initialize(t *testing.T) {
	c, done := newTestGitHubClient(t)
	defer done()

	require.NoError(t, c.Initialize(context.Background()))

	bug, ok := c.WorkItemType("bug")
	require.True(t, ok)
	require.Equal(t, "#d73a4a", bug.Color)

	other, ok := c.WorkItemType(models.OtherType)
	require.True(t, ok)
	require.Equal(t, "#333333", other.Color)

	require.Empty(t, c.RootWorkItemType())
	require.Len(t, c.WorkItemTypes(), 3)
}

func TestGitHubClient_GetWorkItemsWithDetails(t *testing.T) {
	c, done := newTestGitHubClient(t)
	defer done()
	require.NoError(t, c.Initialize(context.Background()))

	items, err := c.GetWorkItemsWithDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	issue := items[0]
	require.Equal(t, 12, issue.ID)
	require.Equal(t, "Issue", issue.Type)
	require.Equal(t, "Crash on startup", issue.Title, "html stripped from title")
	require.Equal(t, []string{"bug"}, issue.Tags)
	require.False(t, issue.Root)
	require.False(t, issue.Orphan)
	require.Len(t, issue.Comments, 1)

	pr := items[1]
	require.Equal(t, "PullRequest", pr.Type)
	require.Equal(t, 13, pr.ID)
}

func TestGitHubClient_GetWorkItemByID_NotFound(t *testing.T) {
	c, done := newTestGitHubClient(t)
	defer done()

	_, err := c.GetWorkItemByID(context.Background(), 99)
	require.ErrorContains(t, err, "not found")
}

func TestGitHubClient_TypeOverrides(t *testing.T) {
	srv := newGitHubTestServer(t)
	defer srv.Close()

	overrides := map[string]models.WorkItemType{
		"bug": {Name: "bug", Icon: "https://example.com/bug.svg"},
	}
	c := NewGitHubClient("acme", "rocket", "token", overrides)
	c.apiURL = srv.URL
	require.NoError(t, c.Initialize(context.Background()))

	bug, ok := c.WorkItemType("bug")
	require.True(t, ok)
	require.Equal(t, "https://example.com/bug.svg", bug.Icon)
	require.Equal(t, "#d73a4a", bug.Color)
}
