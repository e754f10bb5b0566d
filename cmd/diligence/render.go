package main

import (
	"fmt"
	"strings"
	"time"

	core "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
)

// renderMarkdown formats a report as a standalone markdown document with
// numbered citations under each section.
func renderMarkdown(r core.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Due diligence: %s\n\n", r.Company)
	fmt.Fprintf(&b, "_Generated %s", r.GeneratedAt.UTC().Format(time.RFC3339))
	if r.MemoryUsed {
		b.WriteString(" · prior findings consulted")
	}
	b.WriteString("_\n\n")
	b.WriteString("## Executive Summary\n\n")
	b.WriteString(r.ExecutiveSummary)
	b.WriteString("\n")
	for _, sec := range r.Sections {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", sec.Title, sec.Content)
		if len(sec.Citations) == 0 {
			continue
		}
		b.WriteString("\nSources:\n")
		for i, c := range sec.Citations {
			title := c.Title
			if title == "" {
				title = c.URL
			}
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, title, c.URL)
		}
	}
	if u := r.MemoryUpdates; u.AddedDocs > 0 || u.AddedSources > 0 {
		fmt.Fprintf(&b, "\n---\nMemory updated: %d documents from %d sources.\n", u.AddedDocs, u.AddedSources)
	}
	return b.String()
}
