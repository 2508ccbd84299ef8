// Package diffstat counts added and removed lines in a unified diff body.
// It does not compute diffs; it only reads the hunks a host already produced.
package diffstat

import "strings"

// Count returns the number of added and removed lines in diff.
// File headers (---/+++) before the first hunk are skipped, as are
// "\ No newline at end of file" markers. An empty diff counts as zero.
func Count(diff string) (additions, deletions int) {
	inHunk := false
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "@@") {
			inHunk = true
			continue
		}
		if !inHunk {
			// GitLab bodies start at the first hunk; anything earlier is a header.
			if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
				continue
			}
		}
		switch {
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}
