package vom

import "github.com/pproenca/agent-tui/internal/domain"

// ScreenGrid is the minimal read surface segmentation needs, letting tests
// build synthetic grids without depending on internal/termemu. The
// session converts internal/termemu.Emulator's Grid() output with
// toVomRows into a RowGrid to satisfy this.
type ScreenGrid interface {
	Rows() int
	Cols() int
	Cell(row, col int) (rune, domain.CellStyle, bool)
}

// RowGrid is a ScreenGrid backed by a simple [][]ScreenCell, as produced
// by internal/termemu.Emulator.Grid().
type RowGrid struct {
	Rows_ [][]domain.ScreenCell
}

func (g RowGrid) Rows() int { return len(g.Rows_) }

func (g RowGrid) Cols() int {
	if len(g.Rows_) == 0 {
		return 0
	}
	return len(g.Rows_[0])
}

func (g RowGrid) Cell(row, col int) (rune, domain.CellStyle, bool) {
	if row < 0 || row >= len(g.Rows_) {
		return 0, domain.CellStyle{}, false
	}
	r := g.Rows_[row]
	if col < 0 || col >= len(r) {
		return 0, domain.CellStyle{}, false
	}
	return r[col].Char, r[col].Style, true
}

// Segment raster-scans the grid row by row, sealing a cluster whenever the
// row ends or the style changes, and discards whitespace-only clusters.
// Output order is row-major, top-to-bottom, left-to-right.
func Segment(grid ScreenGrid) []Cluster {
	var clusters []Cluster

	for y := 0; y < grid.Rows(); y++ {
		var current *clusterBuilder

		for x := 0; x < grid.Cols(); x++ {
			ch, style, ok := grid.Cell(y, x)
			if !ok {
				continue
			}
			if current != nil && current.style.Equal(style) {
				current.extend(ch)
				continue
			}
			if current != nil {
				clusters = append(clusters, current.seal())
			}
			current = &clusterBuilder{x: x, y: y, style: style}
			current.extend(ch)
		}

		if current != nil {
			clusters = append(clusters, current.seal())
		}
	}

	out := clusters[:0]
	for _, c := range clusters {
		if !c.IsWhitespace {
			out = append(out, c)
		}
	}
	return out
}
