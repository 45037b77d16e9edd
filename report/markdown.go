package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/weaverhq/changelog-weaver/models"
)

const baseIconSize = 20

// WriteGroups walks the grouped work item tree and renders it as nested
// Markdown sections. Top-level type headers are recorded for the table of
// contents.
func (o *Output) WriteGroups(groups []models.WorkItemGroup) error {
	return o.writeGroups(groups, 1, baseIconSize)
}

func (o *Output) writeGroups(groups []models.WorkItemGroup, level, iconSize int) error {
	if level > 1 {
		iconSize--
	}
	for _, group := range groups {
		if err := o.writeTypeHeader(group, level, iconSize); err != nil {
			return err
		}
		for _, item := range group.Items {
			switch {
			case item.Type == models.OtherType && len(item.ChildrenByType) > 0:
				// The "Other" parent renders as its nested type groups; it
				// has no header of its own beyond the group header above.
				if err := o.writeGroups(item.ChildrenByType, level+1, iconSize); err != nil {
					return err
				}
			case len(item.Children) > 0:
				if err := o.writeParentHeader(item, level+1, iconSize); err != nil {
					return err
				}
				if len(item.ChildrenByType) > 0 {
					if err := o.writeGroups(item.ChildrenByType, level+2, iconSize); err != nil {
						return err
					}
				} else {
					for _, child := range item.Children {
						if err := o.writeChildItem(child, iconSize); err != nil {
							return err
						}
					}
				}
			default:
				if err := o.writeChildItem(item, iconSize); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (o *Output) writeTypeHeader(group models.WorkItemGroup, level, iconSize int) error {
	title := pluralize(group.Type)
	if level == 1 {
		o.AddHeader(title)
	}
	indent := strings.Repeat("#", level+1)
	header := fmt.Sprintf("%s <img src='%s' height='%d' alt='%s Icon'> %s\n\n",
		indent, group.Icon, iconSize, group.Type, title)
	return o.Write(header)
}

func (o *Output) writeParentHeader(item *models.WorkItem, level, iconSize int) error {
	link := ""
	if item.ID != models.OtherID {
		link = fmt.Sprintf("[#%d](%s) ", item.ID, item.URL)
	}
	indent := strings.Repeat("#", level+1)
	header := fmt.Sprintf("%s <img src='%s' height='%d' alt='%s Icon'> %s%s\n\n",
		indent, item.Icon, iconSize, item.Type, link, item.Title)
	return o.Write(header)
}

func (o *Output) writeChildItem(item *models.WorkItem, iconSize int) error {
	line := fmt.Sprintf("- <img src='%s' height='%d' alt='%s Icon'> [#%d](%s) **%s** %s\n",
		item.Icon, iconSize, item.Type, item.ID, item.URL, item.Title, item.Summary)
	return o.Write(line)
}

// pluralize appends "s" to a type name for its section header; "Other" stays
// as-is.
func pluralize(typeName string) string {
	if typeName == models.OtherType {
		return typeName
	}
	return typeName + "s"
}

var anchorRe = regexp.MustCompile(`[^\w-]`)

// TableOfContents converts section headers into Markdown anchor links.
func TableOfContents(headers []string) string {
	var b strings.Builder
	for _, h := range headers {
		anchor := strings.ToLower(anchorRe.ReplaceAllString(strings.ReplaceAll(h, " ", "-"), ""))
		fmt.Fprintf(&b, "- [%s](#%s)\n", h, anchor)
	}
	return b.String()
}
