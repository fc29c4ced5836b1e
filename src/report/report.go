// Package report renders the markdown triage report.
package report

import (
	"fmt"
	"strings"
	"time"

	"citriage/src/plan"
	"citriage/src/textfmt"
)

// Source says where a job's summary came from.
type Source string

const (
	SourceAI          Source = "ai"
	SourceFallback    Source = "fallback"
	SourceUnavailable Source = "unavailable"
)

// Entry is the rendered outcome for one failed job.
type Entry struct {
	Item   plan.FailedJobItem
	Source Source
	Text   string
	// Model is set for SourceAI entries.
	Model string
}

// Label is the first line of every job section.
func (e Entry) Label() string {
	switch e.Source {
	case SourceAI:
		if e.Model != "" {
			return fmt.Sprintf("AI summary (%s)", e.Model)
		}
		return "AI summary"
	case SourceUnavailable:
		return "Could not retrieve log"
	default:
		return "Programmatic fallback summary"
	}
}

const (
	titleWidth    = 60
	workflowWidth = 40
	timeLayout    = "2006-01-02 15:04 UTC"
)

// Render produces the report. The cost line appears only when actualCost
// is positive; the failed section only when the plan has failed runs.
func Render(p *plan.Plan, entries []Entry, actualCost float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# CI triage report: %s\n\n", p.Branch)
	if p.Repository != "" {
		fmt.Fprintf(&b, "- Repository: %s", p.Repository)
		if p.Provider != "" {
			fmt.Fprintf(&b, " (%s)", p.Provider)
		}
		b.WriteString("\n")
	}
	if p.ID != "" {
		fmt.Fprintf(&b, "- Plan: %s", p.ID)
		if !p.CreatedAt.IsZero() {
			fmt.Fprintf(&b, " (created %s)", formatTime(p.CreatedAt))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "- Runs: %d passed, %d failed, %d pending\n\n", len(p.Passed), len(p.Failed), len(p.Pending))

	writePassed(&b, p.Passed)
	writePending(&b, p.Pending)
	if len(p.Failed) > 0 {
		writeFailed(&b, p.Failed, entries)
	}

	if actualCost > 0 {
		fmt.Fprintf(&b, "---\n\n**Total AI summarization cost: $%.4f**\n", actualCost)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writePassed(b *strings.Builder, runs []plan.RunSummary) {
	b.WriteString("## Passed runs\n\n")
	if len(runs) == 0 {
		b.WriteString("_No passed runs._\n\n")
		return
	}

	b.WriteString("| Workflow | Title | Run | Updated | Link |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, r := range runs {
		link := ""
		if r.URL != "" {
			link = fmt.Sprintf("[view](%s)", r.URL)
		}
		fmt.Fprintf(b, "| %s | %s | #%d | %s | %s |\n",
			textfmt.Cell(r.WorkflowName, workflowWidth),
			textfmt.Cell(r.DisplayTitle, titleWidth),
			r.RunNumber,
			formatTime(r.UpdatedAt),
			link,
		)
	}
	b.WriteString("\n")
}

func writePending(b *strings.Builder, runs []plan.RunSummary) {
	if len(runs) == 0 {
		return
	}
	b.WriteString("## Pending runs\n\n")
	for _, r := range runs {
		fmt.Fprintf(b, "- %s #%d (%s)", r.WorkflowName, r.RunNumber, r.Status)
		if r.DisplayTitle != "" {
			fmt.Fprintf(b, ": %s", textfmt.Cell(r.DisplayTitle, titleWidth))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeFailed(b *strings.Builder, runs []plan.RunSummary, entries []Entry) {
	byRun := make(map[string][]Entry)
	var orphans []Entry
	known := make(map[string]bool, len(runs))
	for _, r := range runs {
		known[r.ID] = true
	}
	for _, e := range entries {
		if known[e.Item.RunID] {
			byRun[e.Item.RunID] = append(byRun[e.Item.RunID], e)
		} else {
			orphans = append(orphans, e)
		}
	}

	b.WriteString("## Failed runs\n\n")
	for _, r := range runs {
		fmt.Fprintf(b, "### %s #%d (%s)\n\n", r.WorkflowName, r.RunNumber, r.Conclusion)
		if r.DisplayTitle != "" {
			fmt.Fprintf(b, "%s\n\n", textfmt.Cell(r.DisplayTitle, 0))
		}
		if r.URL != "" {
			fmt.Fprintf(b, "%s\n\n", r.URL)
		}

		jobs := byRun[r.ID]
		if len(jobs) == 0 {
			b.WriteString("_No failed jobs reported for this run._\n\n")
			continue
		}
		for _, e := range jobs {
			writeEntry(b, e)
		}
	}
	for _, e := range orphans {
		writeEntry(b, e)
	}
}

func writeEntry(b *strings.Builder, e Entry) {
	fmt.Fprintf(b, "#### Job: %s\n\n", e.Item.JobName)
	fmt.Fprintf(b, "_Source: %s_\n\n", e.Label())

	switch e.Source {
	case SourceUnavailable:
		if e.Item.FetchError != "" {
			fmt.Fprintf(b, "Reason: `%s`\n\n", textfmt.Cell(e.Item.FetchError, 200))
		}
	default:
		if text := strings.TrimSpace(e.Text); text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
		if e.Item.LogAvailable() {
			fmt.Fprintf(b, "_Log: %d bytes raw, %d bytes condensed._\n\n", e.Item.RawBytes, e.Item.CondensedBytes)
		}
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}
