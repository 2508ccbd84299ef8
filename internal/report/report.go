// Package report renders merge request analyses as Markdown documents and
// converts them to the XHTML storage format of the documentation host.
//
// Output is deterministic: the same input always renders byte-identical text.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/drewdunne/mrscope/internal/analysis"
	"github.com/drewdunne/mrscope/internal/provider"
)

// Format renders the analysis of one merge request. Sections appear in a fixed
// order: overview, statistics, file types, files.
func Format(mr provider.MergeRequest, stats *analysis.ChangeStatistics) string {
	if stats == nil {
		stats = analysis.Aggregate(nil)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Merge Request !%d: %s\n\n", mr.ID, oneLine(mr.Title))

	b.WriteString("## Overview\n\n")
	writeOverview(&b, mr)
	b.WriteString("\n")

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- **Files changed:** %d\n", stats.TotalFiles)
	fmt.Fprintf(&b, "- **Additions:** %d\n", stats.TotalAdditions)
	fmt.Fprintf(&b, "- **Deletions:** %d\n", stats.TotalDeletions)
	if stats.TotalFiles > 0 {
		fmt.Fprintf(&b, "- **Common directory:** %s\n", code(stats.CommonDir))
	}
	b.WriteString("\n")

	b.WriteString("## File Types\n\n")
	groups := stats.SortedGroups()
	if len(groups) == 0 {
		b.WriteString("_No files changed._\n")
	} else {
		b.WriteString("| Extension | Files | Additions | Deletions |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", code(g.Extension), g.FileCount, g.TotalAdditions, g.TotalDeletions)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Files\n\n")
	if len(stats.Files) == 0 {
		b.WriteString("_No files changed._\n")
	} else {
		b.WriteString("| Path | Type | Status | Additions | Deletions |\n")
		b.WriteString("|---|---|---|---:|---:|\n")
		for _, f := range stats.Files {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %d |\n",
				displayPath(f), code(analysis.Extension(f.Path())), f.Status(), f.Additions, f.Deletions)
		}
	}

	return b.String()
}

// FormatList renders a summary of several merge requests of a project.
func FormatList(projectID string, mrs []provider.MergeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Merge Requests Summary: %s\n\n", oneLine(projectID))

	if len(mrs) == 0 {
		b.WriteString("_No merge requests._\n")
		return b.String()
	}

	for i, mr := range mrs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## !%d: %s\n\n", mr.ID, oneLine(mr.Title))
		writeOverview(&b, mr)
	}
	return b.String()
}

func writeOverview(b *strings.Builder, mr provider.MergeRequest) {
	fmt.Fprintf(b, "- **ID:** %d\n", mr.ID)
	fmt.Fprintf(b, "- **Title:** %s\n", oneLine(mr.Title))
	fmt.Fprintf(b, "- **Author:** %s\n", author(mr.Author))
	fmt.Fprintf(b, "- **State:** %s\n", mr.State)
	fmt.Fprintf(b, "- **Branches:** %s → %s\n", code(mr.SourceBranch), code(mr.TargetBranch))
	if mr.WebURL != "" {
		fmt.Fprintf(b, "- **Link:** [View merge request](%s)\n", mr.WebURL)
	}
}

func author(a provider.Author) string {
	switch {
	case a.Name != "" && a.Username != "":
		return fmt.Sprintf("%s (@%s)", oneLine(a.Name), a.Username)
	case a.Username != "":
		return "@" + a.Username
	case a.Name != "":
		return oneLine(a.Name)
	default:
		return "unknown"
	}
}

func displayPath(f provider.FileChange) string {
	if f.IsRenamed && f.OldPath != "" && f.OldPath != f.NewPath {
		return code(f.OldPath) + " → " + code(f.NewPath)
	}
	return code(f.Path())
}

// code wraps s in a code span that is safe inside a table cell.
func code(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(oneLine(s), "|", `\|`)
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
	goldmark.WithRendererOptions(html.WithXHTML()),
)

// StorageBody converts a Markdown document into the XHTML body the
// documentation host stores.
func StorageBody(doc string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(doc), &buf); err != nil {
		return "", errors.Wrap(err, "rendering markdown")
	}
	return buf.String(), nil
}
