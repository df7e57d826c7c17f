// Package vom implements the visual object model pipeline: a pure,
// deterministic function from a styled cell grid and cursor position to
// a list of semantic UI components, in three stages — segmentation into
// same-style clusters, heuristic role classification, and snapshot
// formatting.
package vom

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pproenca/agent-tui/internal/domain"
)

// Cluster is a maximal run of cells on one row sharing an identical
// CellStyle, sealed once the row ends or the style changes.
type Cluster struct {
	Rect         domain.Rect
	Text         string
	Style        domain.CellStyle
	IsWhitespace bool
}

type clusterBuilder struct {
	x, y  int
	style domain.CellStyle
	runes []rune
}

func (b *clusterBuilder) extend(r rune) {
	b.runes = append(b.runes, r)
}

func (b *clusterBuilder) seal() Cluster {
	text := string(b.runes)
	width := 0
	for _, r := range b.runes {
		w := runewidth.RuneWidth(r)
		if w <= 0 {
			w = 1
		}
		width += w
	}
	return Cluster{
		Rect:         domain.Rect{X: b.x, Y: b.y, W: width, H: 1},
		Text:         text,
		Style:        b.style,
		IsWhitespace: strings.TrimSpace(text) == "",
	}
}
