package termemu

import (
	"strings"

	"github.com/pproenca/agent-tui/internal/domain"
)

// RenderANSI re-encodes the current grid as ANSI-styled text, one line
// per row, restoring the fg/bg/bold/underline/inverse attributes each
// run of same-styled cells carried. This backs the `rendered` field of
// the `snapshot` RPC, giving callers that want to display the screen a
// colorized reconstruction instead of the bare text dump.
func (e *Emulator) RenderANSI() string {
	size := e.Size()
	return e.RenderANSIRegion(0, 0, size.Cols, size.Rows)
}

// RenderANSIRegion renders only the sub-rectangle starting at cell
// (x, y) spanning w columns and h rows, clamped to the grid. Cropping at
// the cell level keeps escape sequences intact, which a textual
// substring crop of RenderANSI output would not.
func (e *Emulator) RenderANSIRegion(x, y, w, h int) string {
	rows := e.Grid()
	if y < 0 {
		y = 0
	}
	if x < 0 {
		x = 0
	}
	endRow := y + h
	if h <= 0 || endRow > len(rows) {
		endRow = len(rows)
	}

	var b strings.Builder
	for i := y; i < endRow; i++ {
		cells := rows[i].Cells
		if x < len(cells) {
			end := x + w
			if w <= 0 || end > len(cells) {
				end = len(cells)
			}
			renderRow(&b, cells[x:end])
		}
		if i < endRow-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderRow(b *strings.Builder, cells []domain.ScreenCell) {
	var current domain.CellStyle
	open := false
	for _, cell := range cells {
		if !open || !cell.Style.Equal(current) {
			if open {
				b.WriteString("\x1b[0m")
			}
			if seq := sgrSequence(cell.Style); seq != "" {
				b.WriteString("\x1b[" + seq + "m")
			}
			current = cell.Style
			open = true
		}
		b.WriteRune(cell.Char)
	}
	if open {
		b.WriteString("\x1b[0m")
	}
}

// sgrSequence builds the SGR parameter string for one style, delegating
// the fg/bg portions to termenv.Color's Sequence method.
func sgrSequence(style domain.CellStyle) string {
	var parts []string
	if style.Bold {
		parts = append(parts, "1")
	}
	if style.Underline {
		parts = append(parts, "4")
	}
	if style.Inverse {
		parts = append(parts, "7")
	}
	if fg := style.Fg.Sequence(false); fg != "" {
		parts = append(parts, fg)
	}
	if bg := style.Bg.Sequence(true); bg != "" {
		parts = append(parts, bg)
	}
	return strings.Join(parts, ";")
}
