package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/weaverhq/changelog-weaver/models"
	"github.com/weaverhq/changelog-weaver/types"
)

const githubDefaultIcon = "https://github.com/favicon.ico"

// GitHubClient talks to the GitHub REST API. Issues and pull requests are
// the work items; labels double as the work item type registry.
type GitHubClient struct {
	httpClient *http.Client
	apiURL     string
	token      string
	owner      string
	repo       string

	issueTypes    map[string]models.WorkItemType
	typeOverrides map[string]models.WorkItemType
}

// NewGitHubClient creates a client for the given repository.
func NewGitHubClient(owner, repo, token string, typeOverrides map[string]models.WorkItemType) *GitHubClient {
	return &GitHubClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiURL:        "https://api.github.com",
		token:         token,
		owner:         owner,
		repo:          repo,
		typeOverrides: typeOverrides,
	}
}

type ghLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ghComment struct {
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

type ghIssue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	State       string    `json:"state"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Comments    int       `json:"comments"`
	Labels      []ghLabel `json:"labels"`
	PullRequest *struct {
		URL string `json:"url"`
	} `json:"pull_request,omitempty"`
}

// Initialize fetches the repository labels and registers them as work item
// types, plus the default "Other" type.
func (c *GitHubClient) Initialize(ctx context.Context) error {
	var labels []ghLabel
	path := fmt.Sprintf("/repos/%s/%s/labels?per_page=100", c.owner, c.repo)
	if err := c.get(ctx, path, &labels); err != nil {
		return fmt.Errorf("fetch labels: %w", err)
	}

	reported := make(map[string]models.WorkItemType, len(labels)+1)
	for _, l := range labels {
		color := "#000000"
		if l.Color != "" {
			color = "#" + l.Color
		}
		reported[l.Name] = models.WorkItemType{Name: l.Name, Icon: githubDefaultIcon, Color: color}
	}
	reported[models.OtherType] = models.WorkItemType{
		Name:  models.OtherType,
		Icon:  githubDefaultIcon,
		Color: "#333333",
	}
	c.issueTypes = models.MergeTypeDefs(reported, c.typeOverrides)
	return nil
}

// GetWorkItemByID retrieves a single issue or pull request by number.
func (c *GitHubClient) GetWorkItemByID(ctx context.Context, id int) (*models.WorkItem, error) {
	var issue ghIssue
	path := fmt.Sprintf("/repos/%s/%s/issues/%d", c.owner, c.repo, id)
	if err := c.get(ctx, path, &issue); err != nil {
		return nil, fmt.Errorf("fetch issue #%d: %w", id, err)
	}
	return c.convert(ctx, issue), nil
}

// GetWorkItemsWithDetails retrieves all issues and pull requests, paging
// through the listing endpoint.
func (c *GitHubClient) GetWorkItemsWithDetails(ctx context.Context) ([]*models.WorkItem, error) {
	var items []*models.WorkItem
	for page := 1; ; page++ {
		var issues []ghIssue
		path := fmt.Sprintf("/repos/%s/%s/issues?state=all&per_page=100&page=%d", c.owner, c.repo, page)
		if err := c.get(ctx, path, &issues); err != nil {
			return nil, fmt.Errorf("fetch issues page %d: %w", page, err)
		}
		if len(issues) == 0 {
			break
		}
		for _, issue := range issues {
			items = append(items, c.convert(ctx, issue))
		}
	}
	return items, nil
}

// WorkItemTypes returns all known issue types (labels).
func (c *GitHubClient) WorkItemTypes() []models.WorkItemType {
	out := make([]models.WorkItemType, 0, len(c.issueTypes))
	for _, t := range c.issueTypes {
		out = append(out, t)
	}
	return out
}

// WorkItemType returns an issue type (label) by name.
func (c *GitHubClient) WorkItemType(name string) (models.WorkItemType, bool) {
	t, ok := c.issueTypes[name]
	return t, ok
}

// RootWorkItemType returns "": GitHub has no backlog-root concept, so no
// fetched item is ever flagged as a root type.
func (c *GitHubClient) RootWorkItemType() string { return "" }

func (c *GitHubClient) convert(ctx context.Context, issue ghIssue) *models.WorkItem {
	itemType := "Issue"
	if issue.PullRequest != nil {
		itemType = "PullRequest"
	}

	tags := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		tags = append(tags, l.Name)
	}
	icon := githubDefaultIcon
	if len(tags) > 0 {
		if t, ok := c.issueTypes[tags[0]]; ok {
			icon = t.Icon
		}
	}

	item := &models.WorkItem{
		ID:           issue.Number,
		Type:         itemType,
		State:        issue.State,
		Title:        cleanString(issue.Title),
		URL:          issue.HTMLURL,
		Icon:         icon,
		Root:         false,
		Orphan:       false,
		Description:  cleanString(issue.Body),
		Tags:         tags,
		CommentCount: issue.Comments,
	}
	if issue.Comments > 0 {
		item.Comments = c.fetchComments(ctx, issue.Number)
	}
	return item
}

func (c *GitHubClient) fetchComments(ctx context.Context, number int) []string {
	var comments []ghComment
	path := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.repo, number)
	if err := c.get(ctx, path, &comments); err != nil {
		return nil
	}
	out := make([]string, 0, len(comments))
	for _, cm := range comments {
		out = append(out, fmt.Sprintf("%s | %s | %s", formatDate(cm.CreatedAt), cm.User.Login, cleanString(cm.Body)))
	}
	return out
}

func (c *GitHubClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

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
		return fmt.Errorf("github api %s: status %d: %s", path, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
