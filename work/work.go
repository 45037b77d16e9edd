// Package work orchestrates the changelog pipeline: it collects flat work
// items from a platform client, prefetches missing ancestors concurrently,
// hands the fully populated map to the hierarchy builder, and enriches the
// result with best-effort summaries.
package work

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/weaverhq/changelog-weaver/hierarchy"
	"github.com/weaverhq/changelog-weaver/llm"
	"github.com/weaverhq/changelog-weaver/models"
	"github.com/weaverhq/changelog-weaver/platforms"
	"github.com/weaverhq/changelog-weaver/prompts"
	"github.com/weaverhq/changelog-weaver/types"
)

const (
	// prefetchLimit bounds concurrent ancestor fetches per round.
	prefetchLimit = 10
	// summaryBatchSize bounds concurrent summarization calls; upstream rate
	// limits tolerate roughly this much fan-out.
	summaryBatchSize = 10
)

// Service wraps a platform client and owns the work item collection. The
// collection is mutated concurrently only during the prefetch phase; the
// hierarchy build itself runs strictly sequentially afterwards.
type Service struct {
	client     platforms.Client
	summarizer llm.Summarizer

	mu  sync.Mutex
	all map[int]*models.WorkItem

	roots  []*models.WorkItem
	byType []models.WorkItemGroup
}

// New creates a Service. summarizer may be nil, which disables summaries.
func New(client platforms.Client, summarizer llm.Summarizer) *Service {
	return &Service{
		client:     client,
		summarizer: summarizer,
		all:        make(map[int]*models.WorkItem),
	}
}

// Initialize initializes the underlying platform client.
func (s *Service) Initialize(ctx context.Context) error {
	return s.client.Initialize(ctx)
}

// Add inserts an item into the collection unless an item with the same ID is
// already present, and returns the canonical instance for that ID.
func (s *Service) Add(item *models.WorkItem) *models.WorkItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.all[item.ID]; ok {
		return existing
	}
	s.all[item.ID] = item
	return item
}

// Get returns the item with the given ID, if present.
func (s *Service) Get(id int) (*models.WorkItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.all[id]
	return item, ok
}

// GetItemByID fetches an item from the platform and adds it to the
// collection.
func (s *Service) GetItemByID(ctx context.Context, id int) (*models.WorkItem, error) {
	item, err := s.client.GetWorkItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Add(item), nil
}

// Roots returns the root forest built by the last GenerateOrderedWorkItems.
func (s *Service) Roots() []*models.WorkItem { return s.roots }

// ByType returns the top-level grouping built by the last
// GenerateOrderedWorkItems.
func (s *Service) ByType() []models.WorkItemGroup { return s.byType }

// GenerateOrderedWorkItems runs the full pipeline: fetch, ancestor prefetch,
// hierarchy build, summarization, and top-level grouping. It returns the
// ordered work item groups ready for rendering.
func (s *Service) GenerateOrderedWorkItems(ctx context.Context) ([]models.WorkItemGroup, error) {
	items, err := s.client.GetWorkItemsWithDetails(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch work items: %w", err)
	}
	for _, item := range items {
		s.Add(item)
	}
	slog.Info("fetched work items", "count", len(items))

	// The builder's precondition: every referenced ancestor present (or the
	// referencing item marked orphan) before Build runs.
	if err := s.resolveParents(ctx); err != nil {
		return nil, err
	}

	roots, err := hierarchy.Build(s.all)
	if err != nil {
		return nil, err
	}
	s.roots = roots
	s.decorateOther()

	if s.summarizer != nil {
		s.summarizeItems(ctx)
	}

	s.byType = hierarchy.GroupByType(s.roots)
	return s.byType, nil
}

// resolveParents fetches missing ancestors in rounds: each round collects
// every referenced-but-absent parent ID and fans out bounded concurrent
// fetches, then joins. Rounds repeat so grandparents pulled in by one round
// get their own parents resolved in the next. A parent the platform no
// longer knows about demotes the referencing items to orphans.
func (s *Service) resolveParents(ctx context.Context) error {
	for {
		missing := s.missingParentIDs()
		if len(missing) == 0 {
			return nil
		}
		slog.Debug("resolving missing parents", "count", len(missing))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(prefetchLimit)
		for _, id := range missing {
			id := id
			g.Go(func() error {
				_, err := s.GetItemByID(gctx, id)
				if errors.Is(err, types.ErrItemNotFound) {
					slog.Warn("parent no longer exists, treating children as orphans", "parent_id", id)
					s.orphanChildrenOf(id)
					return nil
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("resolve parents: %w", err)
		}
	}
}

func (s *Service) missingParentIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int]bool)
	var missing []int
	for _, item := range s.all {
		pid := item.ParentID
		if pid == 0 || item.Orphan {
			continue
		}
		if _, ok := s.all[pid]; !ok && !seen[pid] {
			seen[pid] = true
			missing = append(missing, pid)
		}
	}
	sort.Ints(missing)
	return missing
}

// orphanChildrenOf marks every item referencing the given parent as orphan.
func (s *Service) orphanChildrenOf(parentID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.all {
		if item.ParentID == parentID {
			item.Orphan = true
		}
	}
}

// decorateOther gives the synthetic "Other" root the icon registered for the
// Other type, if the builder created one.
func (s *Service) decorateOther() {
	other, ok := s.all[models.OtherID]
	if !ok || other.Icon != "" {
		return
	}
	if t, found := s.client.WorkItemType(models.OtherType); found {
		other.Icon = t.Icon
	}
}

// summarizeItems enriches every item with a one-sentence summary, fanning
// out in bounded batches. Individual failures degrade to an empty summary;
// they never abort the run.
func (s *Service) summarizeItems(ctx context.Context) {
	ids := s.sortedIDs()

	for start := 0; start < len(ids); start += summaryBatchSize {
		end := start + summaryBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			item, ok := s.Get(id)
			if !ok || item.ID == models.OtherID {
				continue
			}
			wg.Add(1)
			go func(item *models.WorkItem) {
				defer wg.Done()
				summary, err := s.summarizer.Summarize(ctx, prompts.WorkItem(item))
				if err != nil {
					slog.Warn("summarization failed", "id", item.ID, "error", err)
					return
				}
				item.Summary = summary
			}(item)
		}
		wg.Wait()
	}
}

func (s *Service) sortedIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.all))
	for id := range s.all {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ReleaseNotesText flattens the built forest into the plain-text digest the
// release summary prompt consumes.
func (s *Service) ReleaseNotesText() string {
	var b strings.Builder
	var walk func(items []*models.WorkItem)
	walk = func(items []*models.WorkItem) {
		for _, item := range items {
			line := item.Summary
			if line == "" {
				line = item.Title
			}
			if item.ID != models.OtherID {
				fmt.Fprintf(&b, "- %s #%d: %s\n", item.Type, item.ID, line)
			}
			walk(item.Children)
		}
	}
	walk(s.roots)
	return b.String()
}

// SummarizeRelease asks the model for the whole-release summary. It is
// best-effort: any failure yields an empty summary and a warning.
func (s *Service) SummarizeRelease(ctx context.Context, name, brief string) string {
	if s.summarizer == nil {
		return ""
	}
	summary, err := s.summarizer.Summarize(ctx, prompts.ReleaseSummary(name, brief, s.ReleaseNotesText()))
	if err != nil {
		slog.Warn("release summarization failed", "error", err)
		return ""
	}
	return summary
}
