// Package platforms contains the tracking platform clients that supply flat
// work item records to the hierarchy core.
package platforms

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/weaverhq/changelog-weaver/models"
	"github.com/weaverhq/changelog-weaver/types"
)

// Client is the contract the orchestration layer depends on. Implementations
// must return fully populated flat records; parent-chain resolution across
// records is the caller's job (see the work package).
type Client interface {
	// Initialize fetches platform metadata: work item types and, where the
	// platform has one, the root (backlog top level) work item type.
	Initialize(ctx context.Context) error

	// GetWorkItemByID retrieves a single work item, used for ancestor
	// resolution.
	GetWorkItemByID(ctx context.Context, id int) (*models.WorkItem, error)

	// GetWorkItemsWithDetails retrieves the work items selected by the
	// configured query, with full details.
	GetWorkItemsWithDetails(ctx context.Context) ([]*models.WorkItem, error)

	// WorkItemTypes returns all known work item types.
	WorkItemTypes() []models.WorkItemType

	// WorkItemType returns a work item type by name.
	WorkItemType(name string) (models.WorkItemType, bool)

	// RootWorkItemType returns the name of the platform's top-level type,
	// or "" when the platform has no such concept.
	RootWorkItemType() string
}

// ProjectRef identifies a project on a tracking platform, derived from the
// configured project URL.
type ProjectRef struct {
	Platform     models.Platform
	Organization string
	Project      string
	BaseURL      string
}

// ParseProjectURL extracts the platform, organization and project from a
// project URL. Supported forms:
//
//	https://github.com/<owner>/<repo>
//	https://dev.azure.com/<org>/<project>
//	https://<org>.visualstudio.com/<project>
func ParseProjectURL(raw string) (ProjectRef, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ProjectRef{}, fmt.Errorf("parse project url %q: %w", raw, err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	switch {
	case parsed.Host == "github.com":
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return ProjectRef{}, fmt.Errorf("invalid GitHub URL: %s", raw)
		}
		return ProjectRef{
			Platform:     models.PlatformGitHub,
			Organization: parts[0],
			Project:      parts[1],
			BaseURL:      "https://github.com/" + parts[0],
		}, nil

	case strings.HasSuffix(parsed.Host, "dev.azure.com"):
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return ProjectRef{}, fmt.Errorf("invalid Azure DevOps URL: %s", raw)
		}
		project, err := url.PathUnescape(parts[1])
		if err != nil {
			project = parts[1]
		}
		return ProjectRef{
			Platform:     models.PlatformAzureDevOps,
			Organization: parts[0],
			Project:      project,
			BaseURL:      "https://dev.azure.com",
		}, nil

	case strings.HasSuffix(parsed.Host, "visualstudio.com"):
		org := strings.Split(parsed.Host, ".")[0]
		if org == "" || len(parts) < 1 || parts[0] == "" {
			return ProjectRef{}, fmt.Errorf("invalid Azure DevOps URL: %s", raw)
		}
		project, err := url.PathUnescape(parts[0])
		if err != nil {
			project = parts[0]
		}
		return ProjectRef{
			Platform:     models.PlatformAzureDevOps,
			Organization: org,
			Project:      project,
			BaseURL:      fmt.Sprintf("https://%s.visualstudio.com", org),
		}, nil
	}

	return ProjectRef{}, fmt.Errorf("%w: unable to determine platform from URL %s", types.ErrUnsupportedPlatform, raw)
}

// NewClient returns the platform client for ref. typeOverrides, when
// non-nil, replaces the display attributes of platform-reported work item
// types after Initialize.
func NewClient(ref ProjectRef, query, accessToken string, typeOverrides map[string]models.WorkItemType) (Client, error) {
	switch ref.Platform {
	case models.PlatformGitHub:
		return NewGitHubClient(ref.Organization, ref.Project, accessToken, typeOverrides), nil
	case models.PlatformAzureDevOps:
		return NewDevOpsClient(ref.BaseURL, ref.Organization, ref.Project, query, accessToken, typeOverrides), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedPlatform, ref.Platform)
	}
}
