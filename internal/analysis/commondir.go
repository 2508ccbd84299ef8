package analysis

import (
	"path"
	"strings"
)

// CommonDir returns the deepest directory containing every path, or "." when
// the paths share no directory.
func CommonDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}

	var common []string
	for i, p := range paths {
		dir := path.Dir(p)
		var parts []string
		if dir != "." && dir != "/" {
			parts = strings.Split(strings.TrimPrefix(dir, "/"), "/")
		}
		if i == 0 {
			common = parts
			continue
		}
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
		if len(common) == 0 {
			break
		}
	}

	if len(common) == 0 {
		return "."
	}
	return strings.Join(common, "/")
}
