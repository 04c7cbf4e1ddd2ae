// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/resumeforge/resumeforge-go/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// meterWidth is the width of usage meter bars
	meterWidth = 20
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintATSAnalysis outputs a human-readable summary of an ATS analysis.
func (p *Printer) PrintATSAnalysis(analysis *types.ATSAnalysis) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:  %d / 100\n", analysis.Score))

	if len(analysis.ScoreBreakdown) > 0 {
		sb.WriteString("\nBreakdown:\n")
		for _, category := range sortedKeys(analysis.ScoreBreakdown) {
			sb.WriteString(fmt.Sprintf("  %-20s %d\n", category, analysis.ScoreBreakdown[category]))
		}
	}

	writeList(&sb, "Strengths", analysis.Strengths)
	writeList(&sb, "Weaknesses", analysis.Weaknesses)
	writeList(&sb, "Suggestions", analysis.UpgradeSuggestions)

	p.printBox("ATS ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintUsage outputs today's quota meters with warning markers.
func (p *Printer) PrintUsage(usage *types.Usage) {
	if usage == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(meterLine("AI requests", usage.APICalls))
	sb.WriteString(meterLine("CVs", usage.CVs))
	if usage.ResetInfo != "" {
		sb.WriteString(fmt.Sprintf("\n%s", usage.ResetInfo))
	}

	p.printBox("TODAY'S USAGE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSubscription outputs the current plan.
func (p *Printer) PrintSubscription(sub *types.Subscription) {
	if sub == nil {
		return
	}

	var sb strings.Builder
	name := sub.DisplayName
	if name == "" {
		name = sub.Name
	}
	sb.WriteString(fmt.Sprintf("Plan:     %s\n", name))
	if sub.Status != "" {
		sb.WriteString(fmt.Sprintf("Status:   %s\n", sub.Status))
	}
	if sub.BillingCycle != "" {
		sb.WriteString(fmt.Sprintf("Billing:  %s\n", sub.BillingCycle))
	}
	if sub.CurrentPeriodEnd != "" {
		sb.WriteString(fmt.Sprintf("Renews:   %s\n", sub.CurrentPeriodEnd))
	}
	if sub.APICallLimit > 0 {
		sb.WriteString(fmt.Sprintf("Limits:   %d AI requests/day, %d CVs\n", sub.APICallLimit, sub.CVLimit))
	}

	p.printBox("SUBSCRIPTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCVList outputs the stored CVs, most recent first as the backend
// returns them.
func (p *Printer) PrintCVList(cvs []types.CV) {
	if len(cvs) == 0 {
		p.printBox("YOUR CVS", "No CVs yet")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total: %d\n\n", len(cvs)))

	count := min(len(cvs), maxItemsToShow)
	for i := 0; i < count; i++ {
		cv := cvs[i]
		name := cv.Name
		if len(name) > 36 {
			name = name[:33] + "..."
		}
		sb.WriteString(fmt.Sprintf("• %s\n", name))
		sb.WriteString(fmt.Sprintf("  %s\n", cv.ID))
	}
	if len(cvs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(cvs)-maxItemsToShow))
	}

	p.printBox("YOUR CVS", strings.TrimSuffix(sb.String(), "\n"))
}

// meterLine renders one quota as a bar with used/limit numbers and a
// warning marker when usage is high.
func meterLine(label string, q types.Quota) string {
	filled := 0
	if q.Limit > 0 {
		filled = q.Used * meterWidth / q.Limit
		if filled > meterWidth {
			filled = meterWidth
		}
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)

	marker := ""
	switch q.WarningLevel {
	case types.WarningHigh:
		marker = " ⚠⚠"
	case types.WarningMedium:
		marker = " ⚠"
	}
	return fmt.Sprintf("%-12s %s %d/%d%s\n", label, bar, q.Used, q.Limit, marker)
}

func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s:\n", heading))
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		item := items[i]
		if len(item) > 50 {
			item = item[:47] + "..."
		}
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
