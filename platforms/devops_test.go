package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/weaverhq/changelog-weaver/models"
)

func newDevOpsTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/contoso/Fabrikam/_apis/wit/workitemtypes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"name": "Epic", "icon": map[string]any{"url": "https://icons/epic.png"}, "color": "FF7B00"},
				{"name": "Bug", "icon": map[string]any{"url": "https://icons/bug.png"}, "color": "CC293D"},
				{"name": "Task", "icon": map[string]any{"url": "https://icons/task.png"}, "color": "F2CB1D"},
			},
		})
	})

	mux.HandleFunc("/contoso/Fabrikam/_apis/work/processconfiguration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"portfolioBacklogs": []map[string]any{
				{"workItemTypes": []map[string]any{{"name": "Epic"}}},
			},
		})
	})

	mux.HandleFunc("/contoso/Fabrikam/_apis/wit/wiql/query-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"workItems": []map[string]any{{"id": 101}, {"id": 102}},
		})
	})

	mux.HandleFunc("/contoso/Fabrikam/_apis/wit/workitems", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "101,102", r.URL.Query().Get("ids"))
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{
					"id":  101,
					"url": "https://dev.azure.com/contoso/_apis/wit/workItems/101",
					"fields": map[string]any{
						"System.WorkItemType": "Epic",
						"System.State":        "Done",
						"System.Title":        "Release epic",
					},
				},
				{
					"id":  102,
					"url": "https://dev.azure.com/contoso/_apis/wit/workItems/102",
					"fields": map[string]any{
						"System.WorkItemType":                      "Bug",
						"System.State":                             "Closed",
						"System.Title":                             "Fix <i>flaky</i> login",
						"System.Parent":                            float64(101),
						"System.Tags":                              "auth; regression",
						"Microsoft.VSTS.Scheduling.StoryPoints":    float64(3),
						"Microsoft.VSTS.Common.Priority":           float64(2),
						"Microsoft.VSTS.Common.AcceptanceCriteria": "login works",
					},
				},
			},
		})
	})

	mux.HandleFunc("/contoso/Fabrikam/_apis/wit/workitems/101", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":  101,
			"url": "https://dev.azure.com/contoso/_apis/wit/workItems/101",
			"fields": map[string]any{
				"System.WorkItemType": "Epic",
				"System.State":        "Done",
				"System.Title":        "Release epic",
			},
		})
	})

	return httptest.NewServer(mux)
}

func newTestDevOpsClient(t *testing.T) (*DevOpsClient, func()) {
	t.Helper()
	srv := newDevOpsTestServer(t)
	c := NewDevOpsClient(srv.URL, "contoso", "Fabrikam", "query-1", "pat", nil)
	return c, srv.Close
}

func TestDevOpsClient_Initialize(t *testing.T) {
	c, done := newTestDevOpsClient(t)
	defer done()

	require.NoError(t, c.Initialize(context.Background()))
	require.Equal(t, "Epic", c.RootWorkItemType())

	bug, ok := c.WorkItemType("Bug")
	require.True(t, ok)
	require.Equal(t, "https://icons/bug.png", bug.Icon)
	require.Equal(t, "#CC293D", bug.Color)

	_, ok = c.WorkItemType(models.OtherType)
	require.True(t, ok)
}

func TestDevOpsClient_GetWorkItemsWithDetails(t *testing.T) {
	c, done := newTestDevOpsClient(t)
	defer done()
	require.NoError(t, c.Initialize(context.Background()))

	items, err := c.GetWorkItemsWithDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	epic := items[0]
	require.Equal(t, 101, epic.ID)
	require.True(t, epic.Root, "root backlog type is flagged root")
	require.False(t, epic.Orphan, "root types are never orphans")
	require.True(t, strings.Contains(epic.URL, "_workitems/edit"), "api url rewritten to edit url")

	bug := items[1]
	require.Equal(t, 101, bug.ParentID)
	require.False(t, bug.Orphan)
	require.Equal(t, "Fix flaky login", bug.Title)
	require.Equal(t, []string{"auth", "regression"}, bug.Tags)
	require.NotNil(t, bug.StoryPoints)
	require.Equal(t, 3, *bug.StoryPoints)
	require.NotNil(t, bug.Priority)
	require.Equal(t, 2, *bug.Priority)
	require.Equal(t, "https://icons/bug.png", bug.Icon)
}

func TestDevOpsClient_OrphanFlagging(t *testing.T) {
	c, done := newTestDevOpsClient(t)
	defer done()
	require.NoError(t, c.Initialize(context.Background()))

	// A non-root item without System.Parent is an orphan.
	raw := devopsWorkItem{
		ID:  7,
		URL: "https://dev.azure.com/contoso/_apis/wit/workItems/7",
		Fields: map[string]interface{}{
			"System.WorkItemType": "Task",
			"System.Title":        "Loose task",
		},
	}
	item := c.convert(context.Background(), raw)
	require.True(t, item.Orphan)
	require.False(t, item.Root)

	// The root type without a parent is not an orphan.
	raw.Fields["System.WorkItemType"] = "Epic"
	item = c.convert(context.Background(), raw)
	require.False(t, item.Orphan)
	require.True(t, item.Root)
}

func TestDevOpsClient_GetWorkItemByID(t *testing.T) {
	c, done := newTestDevOpsClient(t)
	defer done()
	require.NoError(t, c.Initialize(context.Background()))

	item, err := c.GetWorkItemByID(context.Background(), 101)
	require.NoError(t, err)
	require.Equal(t, 101, item.ID)
	require.Equal(t, "Release epic", item.Title)
}
