package hierarchy

import "github.com/weaverhq/changelog-weaver/models"

// GroupByType partitions an ordered sequence of sibling work items into
// ordered type buckets. Buckets appear in order of first encounter, with the
// icon taken from the first item of each type, except that an "Other" bucket
// always moves to the end. For every placed item that has children, the same
// grouping is applied recursively and stored on the item's ChildrenByType,
// producing a tree of type groupings mirroring the parent/child tree.
//
// Output order depends only on input order. An empty input yields an empty
// result.
func GroupByType(items []*models.WorkItem) []models.WorkItemGroup {
	if len(items) == 0 {
		return nil
	}

	index := make(map[string]int, len(items))
	groups := make([]models.WorkItemGroup, 0, len(items))

	for _, item := range items {
		i, ok := index[item.Type]
		if !ok {
			i = len(groups)
			index[item.Type] = i
			groups = append(groups, models.WorkItemGroup{Type: item.Type, Icon: item.Icon})
		}
		groups[i].Items = append(groups[i].Items, item)

		if len(item.Children) > 0 {
			item.ChildrenByType = GroupByType(item.Children)
		}
	}

	return otherLast(groups)
}

// otherLast moves any "Other" buckets to the end, preserving the relative
// order of everything else.
func otherLast(groups []models.WorkItemGroup) []models.WorkItemGroup {
	ordered := make([]models.WorkItemGroup, 0, len(groups))
	var other []models.WorkItemGroup
	for _, g := range groups {
		if g.Type == models.OtherType {
			other = append(other, g)
			continue
		}
		ordered = append(ordered, g)
	}
	return append(ordered, other...)
}
