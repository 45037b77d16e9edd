// Package prompts builds the prompt text sent to the summarization model.
package prompts

import (
	"fmt"

	"github.com/weaverhq/changelog-weaver/models"
)

const itemInstruction = "You are a developer writing a summary of the work completed for the " +
	"given work item. Ignore timestamps and links. Return only the description text with no " +
	"titles, headers, or formatting; if there is nothing to describe, return 'Addressed'. " +
	"Always assume that the work item was completed. Do not list filenames or links. " +
	"Please provide a single sentence of the work completed for the following work item details:\n"

// WorkItem builds the per-item summarization prompt.
func WorkItem(item *models.WorkItem) string {
	return itemInstruction + item.DetailText()
}

// ReleaseSummary builds the whole-release summarization prompt from the
// project name, its brief, and the accumulated release notes.
func ReleaseSummary(name, brief, notes string) string {
	return fmt.Sprintf("You are a developer working on a software project called %s. "+
		"You have been asked to review the following and write a summary of the work completed "+
		"for this release. Please keep your summary to one paragraph; do not write any bullet "+
		"points or lists, do not group your response in any way, just a natural language "+
		"explanation of what was accomplished. The following is a high-level summary of the "+
		"purpose of the software for your context: %s\n"+
		"The following is a summary of the work items completed in this release:\n%s\n"+
		"Your response should be as concise as possible.", name, brief, notes)
}
