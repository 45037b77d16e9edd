// Package hierarchy reconstructs the parent/child forest of work items from
// a flat, arbitrarily-ordered collection, synthesizes the "Other" bucket for
// orphaned items, and groups every level by work item type.
//
// The package is pure and single-threaded: it performs no I/O and assumes
// the item map is fully populated before Build runs. Ancestor resolution is
// the caller's precondition (see the work package).
package hierarchy

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/weaverhq/changelog-weaver/models"
	"github.com/weaverhq/changelog-weaver/types"
)

// Build converts a flat map of work items keyed by ID into an ordered forest
// of root items, each with Children populated to full depth and
// ChildrenByType computed for every root.
//
// Roots are items with no resolvable parent that are not flagged orphan.
// Orphans are absorbed into a synthetic "Other" item (ID 0) appended last.
// Build is idempotent: re-running it on an already-built map neither
// duplicates children nor creates a second "Other" node.
//
// A cyclic parent reference is outside the platform contract; Build guards
// against it and fails fast with types.ErrCycleDetected instead of recursing
// forever.
func Build(all map[int]*models.WorkItem) ([]*models.WorkItem, error) {
	b := &builder{
		all:       all,
		processed: make(map[int]bool, len(all)),
		rooted:    make(map[int]bool),
	}

	// Deterministic traversal: map iteration order must never leak into the
	// output.
	ids := make([]int, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if err := b.process(all[id], make(map[int]bool)); err != nil {
			return nil, err
		}
	}

	b.absorbOrphans(ids)

	for _, root := range b.roots {
		root.ChildrenByType = GroupByType(root.Children)
	}

	return b.roots, nil
}

type builder struct {
	all       map[int]*models.WorkItem
	roots     []*models.WorkItem
	processed map[int]bool
	rooted    map[int]bool
}

// process links item to its resolved parent (set-like append) and recursively
// ensures the parent itself is processed, so a grandparent also gets linked.
// path tracks the current resolution chain for cycle detection.
func (b *builder) process(item *models.WorkItem, path map[int]bool) error {
	if path[item.ID] {
		return fmt.Errorf("%w: item %d is its own ancestor", types.ErrCycleDetected, item.ID)
	}
	if b.processed[item.ID] {
		return nil
	}
	b.processed[item.ID] = true
	path[item.ID] = true
	defer delete(path, item.ID)

	// ParentID 0 means "no parent reference"; the synthetic "Other" node
	// (ID 0) acquires its children in absorbOrphans, never through parent
	// resolution.
	if parent, ok := b.all[item.ParentID]; ok && item.ParentID != 0 {
		parent.AddChild(item)
		return b.process(parent, path)
	}

	if item.Orphan || item.ID == models.OtherID {
		return nil
	}
	// Items absorbed into "Other" by a previous build keep ParentID 0; they
	// are Other's children, not roots.
	if other, ok := b.all[models.OtherID]; ok && other.HasChild(item.ID) {
		return nil
	}
	if !b.rooted[item.ID] {
		slog.Debug("adding root item", "id", item.ID, "title", item.Title)
		b.roots = append(b.roots, item)
		b.rooted[item.ID] = true
	}
	return nil
}

// absorbOrphans collects every item still flagged orphan into the synthetic
// "Other" parent and appends it as the last root. Absorbed items have their
// ParentID reset to 0 and the orphan flag cleared so a repeated Build is
// stable. When no orphans remain but an "Other" node already exists (a
// re-run), the existing node is re-appended unchanged.
func (b *builder) absorbOrphans(ids []int) {
	var orphans []*models.WorkItem
	for _, id := range ids {
		item := b.all[id]
		if item.Orphan && item.ID != models.OtherID {
			orphans = append(orphans, item)
		}
	}

	if len(orphans) == 0 {
		if other, ok := b.all[models.OtherID]; ok {
			b.roots = append(b.roots, other)
		}
		return
	}

	slog.Info("creating 'Other' work item for orphaned items", "count", len(orphans))
	other, ok := b.all[models.OtherID]
	if !ok {
		other = models.NewOtherParent("")
		b.all[models.OtherID] = other
	}
	for _, orphan := range orphans {
		other.AddChild(orphan)
		orphan.ParentID = models.OtherID
		orphan.Orphan = false
	}
	b.roots = append(b.roots, other)
}
