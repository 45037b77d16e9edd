package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Platform identifies the tracking platform work items are fetched from.
type Platform string

const (
	PlatformAzureDevOps Platform = "azure_devops"
	PlatformGitHub      Platform = "github"
)

const (
	// OtherID is the reserved identifier of the synthetic "Other" parent
	// that absorbs orphaned work items.
	OtherID = 0
	// OtherType is the type name of the synthetic "Other" bucket. Groups of
	// this type always sort last.
	OtherType = "Other"
)

// WorkItem represents one unit of work: an issue, pull request, commit or
// DevOps ticket. Items are created by a platform client, deduplicated by ID
// in the work collection, and linked into a forest by the hierarchy builder.
type WorkItem struct {
	ID       int    `json:"id" validate:"min=0"`
	Type     string `json:"type" validate:"required"`
	State    string `json:"state,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Root     bool   `json:"root"`
	Orphan   bool   `json:"orphan"`
	ParentID int    `json:"parentId,omitempty" validate:"min=0"`

	Description        string   `json:"description,omitempty"`
	ReproSteps         string   `json:"reproSteps,omitempty"`
	AcceptanceCriteria string   `json:"acceptanceCriteria,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	CommentCount       int      `json:"commentCount,omitempty"`
	Comments           []string `json:"comments,omitempty"`
	StoryPoints        *int     `json:"storyPoints,omitempty"`
	Priority           *int     `json:"priority,omitempty"`
	SHA                string   `json:"sha,omitempty"`

	// Summary is filled in by the summarizer. It is best-effort: an empty
	// summary never affects hierarchy or grouping.
	Summary string `json:"summary,omitempty"`

	// Children holds the direct children of this item. Each child has
	// exactly one parent; the parent graph is acyclic by construction
	// because parents are always resolved before a child links to them.
	Children []*WorkItem `json:"children,omitempty"`
	// ChildrenByType is derived from Children after hierarchy construction:
	// a partition of Children by type, first-appearance order, "Other" last.
	ChildrenByType []WorkItemGroup `json:"childrenByType,omitempty"`
}

// HasChild reports whether a direct child with the given ID is already linked.
func (w *WorkItem) HasChild(id int) bool {
	for _, c := range w.Children {
		if c.ID == id {
			return true
		}
	}
	return false
}

// AddChild appends child to w.Children unless a child with the same ID is
// already present. Appends are set-like so that re-running the hierarchy
// builder never duplicates entries.
func (w *WorkItem) AddChild(child *WorkItem) {
	if !w.HasChild(child.ID) {
		w.Children = append(w.Children, child)
	}
}

// DetailText assembles the textual details of the item for summarization.
// Timestamps and URLs are left to the prompt to ignore.
func (w *WorkItem) DetailText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\nTitle: %s\n", w.Type, w.Title)
	if w.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", w.Description)
	}
	if w.ReproSteps != "" {
		fmt.Fprintf(&b, "Repro Steps: %s\n", w.ReproSteps)
	}
	if w.AcceptanceCriteria != "" {
		fmt.Fprintf(&b, "Acceptance Criteria: %s\n", w.AcceptanceCriteria)
	}
	for _, c := range w.Comments {
		fmt.Fprintf(&b, "Comment: %s\n", c)
	}
	return b.String()
}

// NewOtherParent returns the synthetic "Other" work item that absorbs
// orphaned items. It is a root, and it is never itself an orphan.
func NewOtherParent(icon string) *WorkItem {
	return &WorkItem{
		ID:       OtherID,
		Type:     OtherType,
		State:    OtherType,
		Title:    OtherType,
		Icon:     icon,
		Root:     true,
		Orphan:   false,
		ParentID: 0,
	}
}

// WorkItemType describes a work item type as reported by the platform,
// including its display attributes.
type WorkItemType struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

// WorkItemGroup is an ordered bucket of sibling work items sharing a type.
// The icon is taken from the first item of that type encountered.
type WorkItemGroup struct {
	Type  string      `json:"type"`
	Icon  string      `json:"icon"`
	Items []*WorkItem `json:"items"`
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that carries validation tags.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var msgs []string
		for _, e := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
