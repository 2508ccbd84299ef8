// Package analysis aggregates the file changes of a merge request into
// per-file-type statistics.
package analysis

import (
	"path"
	"sort"
	"strings"

	"github.com/go-faster/errors"

	"github.com/drewdunne/mrscope/internal/provider"
)

// NoExtension is the group key of files whose name has no extension.
const NoExtension = "<none>"

// FileTypeGroup collects the changes of one file extension.
type FileTypeGroup struct {
	Extension      string                `json:"extension"`
	FileCount      int                   `json:"file_count"`
	TotalAdditions int                   `json:"total_additions"`
	TotalDeletions int                   `json:"total_deletions"`
	Files          []provider.FileChange `json:"files"`
}

// ChangeStatistics summarizes the changes of one merge request.
//
// TotalFiles, TotalAdditions and TotalDeletions always equal the sums over Groups.
// Files keeps every input change in input order.
type ChangeStatistics struct {
	TotalFiles     int                       `json:"total_files"`
	TotalAdditions int                       `json:"total_additions"`
	TotalDeletions int                       `json:"total_deletions"`
	Groups         map[string]*FileTypeGroup `json:"groups"`
	Files          []provider.FileChange     `json:"files"`
	// CommonDir is the deepest directory containing every changed file.
	CommonDir      string                    `json:"common_dir"`
}

// Aggregate groups changes by file extension in a single pass.
// Every change is counted, including those whose diff body is empty.
func Aggregate(changes []provider.FileChange) *ChangeStatistics {
	stats := &ChangeStatistics{
		Groups: make(map[string]*FileTypeGroup),
		Files:  make([]provider.FileChange, 0, len(changes)),
	}
	paths := make([]string, 0, len(changes))

	for _, c := range changes {
		key := Extension(c.Path())

		g, ok := stats.Groups[key]
		if !ok {
			g = &FileTypeGroup{Extension: key, Files: []provider.FileChange{}}
			stats.Groups[key] = g
		}
		g.FileCount++
		g.TotalAdditions += c.Additions
		g.TotalDeletions += c.Deletions
		g.Files = append(g.Files, c)

		stats.TotalFiles++
		stats.TotalAdditions += c.Additions
		stats.TotalDeletions += c.Deletions
		stats.Files = append(stats.Files, c)
		paths = append(paths, c.Path())
	}
	stats.CommonDir = CommonDir(paths)

	return stats
}

// Validate checks that statistics decoded from outside hold together: no
// empty groups, and totals equal to the sums over groups and files.
func (s *ChangeStatistics) Validate() error {
	if s.TotalFiles < 0 || s.TotalAdditions < 0 || s.TotalDeletions < 0 {
		return errors.New("totals must not be negative")
	}
	if len(s.Files) != s.TotalFiles {
		return errors.Errorf("total_files is %d but %d files are listed", s.TotalFiles, len(s.Files))
	}

	var files, additions, deletions int
	for key, g := range s.Groups {
		if g == nil {
			return errors.Errorf("group %q is null", key)
		}
		if g.FileCount != len(g.Files) {
			return errors.Errorf("group %q: file_count is %d but %d files are listed", key, g.FileCount, len(g.Files))
		}
		files += g.FileCount
		additions += g.TotalAdditions
		deletions += g.TotalDeletions
	}

	switch {
	case files != s.TotalFiles:
		return errors.Errorf("total_files is %d but groups hold %d", s.TotalFiles, files)
	case additions != s.TotalAdditions:
		return errors.Errorf("total_additions is %d but groups hold %d", s.TotalAdditions, additions)
	case deletions != s.TotalDeletions:
		return errors.Errorf("total_deletions is %d but groups hold %d", s.TotalDeletions, deletions)
	}
	return nil
}

// Extension returns the group key for a file path: the lowercase text after the
// last dot of the file name, or NoExtension. This is a naming heuristic, not
// content detection; "archive.tar.gz" groups under "gz".
func Extension(p string) string {
	name := path.Base(p)
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return NoExtension
	}
	return strings.ToLower(name[i+1:])
}

// SortedGroups returns the groups ordered by descending file count, ties broken
// by extension ascending.
func (s *ChangeStatistics) SortedGroups() []*FileTypeGroup {
	groups := make([]*FileTypeGroup, 0, len(s.Groups))
	for _, g := range s.Groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].FileCount != groups[j].FileCount {
			return groups[i].FileCount > groups[j].FileCount
		}
		return groups[i].Extension < groups[j].Extension
	})
	return groups
}
