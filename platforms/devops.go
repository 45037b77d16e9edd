package platforms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/weaverhq/changelog-weaver/models"
	"github.com/weaverhq/changelog-weaver/types"
)

const (
	devopsAPIVersion = "7.1"
	devopsOtherIcon  = "https://tfsproduks1.visualstudio.com/_apis/wit/workItemIcons/icon_review?color=333333&v=2"
	// The work item API reports an API URL; the changelog wants the edit page.
	devopsBatchSize = 199
)

var workItemURLRe = regexp.MustCompile(`(?i)_apis/wit/workitems`)

// DevOpsClient talks to the Azure DevOps REST API.
type DevOpsClient struct {
	httpClient *http.Client
	baseURL    string
	org        string
	project    string
	query      string
	pat        string

	workItemTypes map[string]models.WorkItemType
	typeOverrides map[string]models.WorkItemType
	rootType      string
}

// NewDevOpsClient creates a client for the given organization and project.
// query is the ID of the stored work item query selecting the release scope.
func NewDevOpsClient(baseURL, org, project, query, pat string, typeOverrides map[string]models.WorkItemType) *DevOpsClient {
	return &DevOpsClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		org:           org,
		project:       project,
		query:         query,
		pat:           pat,
		typeOverrides: typeOverrides,
	}
}

type devopsTypeList struct {
	Value []struct {
		Name string `json:"name"`
		Icon struct {
			URL string `json:"url"`
		} `json:"icon"`
		Color string `json:"color"`
	} `json:"value"`
}

type devopsProcessConfig struct {
	PortfolioBacklogs  []devopsBacklog `json:"portfolioBacklogs"`
	RequirementBacklog *devopsBacklog  `json:"requirementBacklog"`
}

type devopsBacklog struct {
	WorkItemTypes []struct {
		Name string `json:"name"`
	} `json:"workItemTypes"`
}

type devopsQueryResult struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type devopsWorkItem struct {
	ID     int                    `json:"id"`
	URL    string                 `json:"url"`
	Fields map[string]interface{} `json:"fields"`
}

type devopsWorkItemList struct {
	Value []devopsWorkItem `json:"value"`
}

type devopsCommentList struct {
	Comments []struct {
		Text         string `json:"text"`
		ModifiedDate string `json:"modifiedDate"`
		ModifiedBy   struct {
			DisplayName string `json:"displayName"`
		} `json:"modifiedBy"`
	} `json:"comments"`
}

// Initialize fetches work item types and determines the root work item type
// from the backlog configuration.
func (c *DevOpsClient) Initialize(ctx context.Context) error {
	if err := c.fetchWorkItemTypes(ctx); err != nil {
		return err
	}
	if err := c.determineRootType(ctx); err != nil {
		// The backlog configuration is an enrichment: without it every item
		// keeps Root=false and orphans still land under "Other".
		slog.Warn("could not determine root work item type", "error", err)
	}
	return nil
}

func (c *DevOpsClient) fetchWorkItemTypes(ctx context.Context) error {
	var list devopsTypeList
	path := fmt.Sprintf("/%s/%s/_apis/wit/workitemtypes?api-version=%s", c.org, c.project, devopsAPIVersion)
	if err := c.get(ctx, path, &list); err != nil {
		return fmt.Errorf("fetch work item types: %w", err)
	}

	reported := make(map[string]models.WorkItemType, len(list.Value)+1)
	for _, t := range list.Value {
		color := "#000000"
		if t.Color != "" {
			color = "#" + t.Color
		}
		reported[t.Name] = models.WorkItemType{Name: t.Name, Icon: t.Icon.URL, Color: color}
	}
	reported[models.OtherType] = models.WorkItemType{
		Name:  models.OtherType,
		Icon:  devopsOtherIcon,
		Color: "#333333",
	}
	c.workItemTypes = models.MergeTypeDefs(reported, c.typeOverrides)
	return nil
}

// determineRootType reads the process configuration: the first portfolio
// backlog is the highest level (typically Epic); projects without portfolio
// backlogs fall back to the requirement backlog.
func (c *DevOpsClient) determineRootType(ctx context.Context) error {
	var cfg devopsProcessConfig
	path := fmt.Sprintf("/%s/%s/_apis/work/processconfiguration?api-version=%s", c.org, c.project, devopsAPIVersion)
	if err := c.get(ctx, path, &cfg); err != nil {
		return err
	}

	if len(cfg.PortfolioBacklogs) > 0 && len(cfg.PortfolioBacklogs[0].WorkItemTypes) > 0 {
		c.rootType = cfg.PortfolioBacklogs[0].WorkItemTypes[0].Name
	} else if cfg.RequirementBacklog != nil && len(cfg.RequirementBacklog.WorkItemTypes) > 0 {
		c.rootType = cfg.RequirementBacklog.WorkItemTypes[0].Name
	}
	slog.Info("root work item type", "type", c.rootType)
	return nil
}

// GetWorkItemByID retrieves a single work item with full details.
func (c *DevOpsClient) GetWorkItemByID(ctx context.Context, id int) (*models.WorkItem, error) {
	var item devopsWorkItem
	path := fmt.Sprintf("/%s/%s/_apis/wit/workitems/%d?$expand=all&api-version=%s", c.org, c.project, id, devopsAPIVersion)
	if err := c.get(ctx, path, &item); err != nil {
		return nil, fmt.Errorf("fetch work item %d: %w", id, err)
	}
	return c.convert(ctx, item), nil
}

// GetWorkItemsWithDetails runs the stored query and batch-fetches the
// selected work items with full details.
func (c *DevOpsClient) GetWorkItemsWithDetails(ctx context.Context) ([]*models.WorkItem, error) {
	var result devopsQueryResult
	path := fmt.Sprintf("/%s/%s/_apis/wit/wiql/%s?api-version=%s", c.org, c.project, c.query, devopsAPIVersion)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("run query %s: %w", c.query, err)
	}

	ids := make([]int, 0, len(result.WorkItems))
	for _, ref := range result.WorkItems {
		ids = append(ids, ref.ID)
	}
	slog.Info("fetched work item ids", "count", len(ids))

	var items []*models.WorkItem
	for start := 0; start < len(ids); start += devopsBatchSize {
		end := start + devopsBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := c.fetchBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}
	return items, nil
}

func (c *DevOpsClient) fetchBatch(ctx context.Context, ids []int) ([]*models.WorkItem, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	var list devopsWorkItemList
	path := fmt.Sprintf("/%s/%s/_apis/wit/workitems?ids=%s&$expand=all&api-version=%s",
		c.org, c.project, strings.Join(parts, ","), devopsAPIVersion)
	if err := c.get(ctx, path, &list); err != nil {
		return nil, fmt.Errorf("fetch work item batch: %w", err)
	}

	items := make([]*models.WorkItem, 0, len(list.Value))
	for _, raw := range list.Value {
		items = append(items, c.convert(ctx, raw))
	}
	return items, nil
}

// WorkItemTypes returns all known work item types.
func (c *DevOpsClient) WorkItemTypes() []models.WorkItemType {
	out := make([]models.WorkItemType, 0, len(c.workItemTypes))
	for _, t := range c.workItemTypes {
		out = append(out, t)
	}
	return out
}

// WorkItemType returns a work item type by name.
func (c *DevOpsClient) WorkItemType(name string) (models.WorkItemType, bool) {
	t, ok := c.workItemTypes[name]
	return t, ok
}

// RootWorkItemType returns the backlog top-level type name.
func (c *DevOpsClient) RootWorkItemType() string { return c.rootType }

func (c *DevOpsClient) convert(ctx context.Context, raw devopsWorkItem) *models.WorkItem {
	fields := raw.Fields
	itemType := stringField(fields, "System.WorkItemType")

	icon := ""
	if t, ok := c.workItemTypes[itemType]; ok {
		icon = t.Icon
	}

	parentID := intField(fields, "System.Parent")
	item := &models.WorkItem{
		ID:                 raw.ID,
		Type:               itemType,
		State:              stringField(fields, "System.State"),
		Title:              cleanString(stringField(fields, "System.Title")),
		URL:                workItemURLRe.ReplaceAllString(raw.URL, "_workitems/edit"),
		Icon:               icon,
		Root:               itemType == c.rootType && c.rootType != "",
		Orphan:             parentID == 0 && itemType != c.rootType,
		ParentID:           parentID,
		Description:        cleanString(stringField(fields, "System.Description")),
		ReproSteps:         cleanString(stringField(fields, "Microsoft.VSTS.TCM.ReproSteps")),
		AcceptanceCriteria: cleanString(stringField(fields, "Microsoft.VSTS.Common.AcceptanceCriteria")),
		CommentCount:       intField(fields, "System.CommentCount"),
	}

	if tags := stringField(fields, "System.Tags"); tags != "" {
		item.Tags = strings.Split(tags, ";")
		for i := range item.Tags {
			item.Tags[i] = strings.TrimSpace(item.Tags[i])
		}
	}
	if sp, ok := numField(fields, "Microsoft.VSTS.Scheduling.StoryPoints"); ok {
		item.StoryPoints = &sp
	}
	if p, ok := numField(fields, "Microsoft.VSTS.Common.Priority"); ok {
		item.Priority = &p
	}
	if item.CommentCount > 0 {
		item.Comments = c.fetchComments(ctx, raw.ID)
	}
	return item
}

func (c *DevOpsClient) fetchComments(ctx context.Context, id int) []string {
	var list devopsCommentList
	path := fmt.Sprintf("/%s/%s/_apis/wit/workItems/%d/comments?api-version=%s-preview", c.org, c.project, id, devopsAPIVersion)
	if err := c.get(ctx, path, &list); err != nil {
		return nil
	}
	out := make([]string, 0, len(list.Comments))
	for _, cm := range list.Comments {
		out = append(out, fmt.Sprintf("%s | %s | %s",
			formatDate(cm.ModifiedDate), cleanName(cm.ModifiedBy.DisplayName), cleanString(cm.Text)))
	}
	return out
}

func (c *DevOpsClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(":" + c.pat))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return types.ErrItemNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("devops api %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func intField(fields map[string]interface{}, key string) int {
	if v, ok := fields[key].(float64); ok {
		return int(v)
	}
	return 0
}

func numField(fields map[string]interface{}, key string) (int, bool) {
	if v, ok := fields[key].(float64); ok {
		n := int(v)
		return n, true
	}
	return 0, false
}
