package tui

import (
	"citriage/src/plan"
)

// JobItem is a failed job shown in the browser list. It implements
// bubbles/list.Item.
type JobItem struct {
	Job plan.FailedJobItem
	// Index is the job's 1-based position in the plan.
	Index int
}

func (i JobItem) FilterValue() string { return i.Job.WorkflowName + " " + i.Job.JobName }

func (i JobItem) Title() string { return i.Job.JobName }

func (i JobItem) Description() string { return i.Job.WorkflowName }

// Label is the "workflow / job" text used in list rows and headers.
func (i JobItem) Label() string {
	if i.Job.WorkflowName == "" {
		return i.Job.JobName
	}
	return i.Job.WorkflowName + " / " + i.Job.JobName
}

func itemsOf(p *plan.Plan) []JobItem {
	items := make([]JobItem, 0, len(p.FailedJobs))
	for i, job := range p.FailedJobs {
		items = append(items, JobItem{Job: job, Index: i + 1})
	}
	return items
}
