package vom

import (
	"strings"

	"github.com/pproenca/agent-tui/internal/domain"
)

// SnapshotOptions controls accessibility_snapshot formatting.
type SnapshotOptions struct {
	InteractiveOnly bool
}

// SnapshotStats summarizes what a formatted snapshot contains.
type SnapshotStats struct {
	Total       int `json:"total"`
	Interactive int `json:"interactive"`
	Lines       int `json:"lines"`
}

// AccessibilitySnapshot is the formatted tree plus its stats.
type AccessibilitySnapshot struct {
	Tree  string
	Stats SnapshotStats
}

// FormatSnapshot renders components into a line-oriented tree, one
// `- Role "text"` line per kept component. It is a pure function of its
// inputs: same components and options always produce the same
// byte-identical tree.
func FormatSnapshot(components []domain.Component, opts SnapshotOptions) AccessibilitySnapshot {
	lines := make([]string, 0, len(components))
	total := 0
	interactive := 0

	for _, c := range components {
		if opts.InteractiveOnly && !c.Role.IsInteractive() {
			continue
		}
		total++
		if c.Role.IsInteractive() {
			interactive++
		}
		name := strings.TrimSpace(c.TextContent)
		var line string
		if name == "" {
			line = "- " + string(c.Role)
		} else {
			escaped := strings.ReplaceAll(name, `"`, `\"`)
			line = "- " + string(c.Role) + " \"" + escaped + "\""
		}
		lines = append(lines, line)
	}

	tree := strings.Join(lines, "\n")
	return AccessibilitySnapshot{
		Tree: tree,
		Stats: SnapshotStats{
			Total:       total,
			Interactive: interactive,
			Lines:       len(lines),
		},
	}
}
