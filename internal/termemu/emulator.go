// Package termemu wraps github.com/vito/midterm behind a stable
// emulator surface: feed bytes in, read cells, cursor, and text out.
// Nothing outside this package touches midterm types.
package termemu

import (
	"strings"
	"sync"

	"github.com/vito/midterm"

	"github.com/pproenca/agent-tui/internal/domain"
)

// Emulator owns one midterm.Terminal grid and translates it to and from
// the daemon's domain types. Every method takes the Emulator's own
// mutex, so a single Emulator is safe for concurrent use.
type Emulator struct {
	mu   sync.Mutex
	term *midterm.Terminal
	rows int
	cols int
}

// New creates an emulator with the given grid size. rows/cols are already
// validated TerminalSize values (domain.ClampSize).
func New(size domain.TerminalSize) *Emulator {
	return &Emulator{
		term: midterm.NewTerminal(size.Rows, size.Cols),
		rows: size.Rows,
		cols: size.Cols,
	}
}

// Feed applies raw child output (including escape sequences) to the grid.
func (e *Emulator) Feed(data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.term.Write(data)
}

// Resize grows or shrinks the grid in place.
func (e *Emulator) Resize(size domain.TerminalSize) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.term.Resize(size.Rows, size.Cols)
	e.rows, e.cols = size.Rows, size.Cols
}

// Cursor returns the current cursor position. Visible tracks the cursor's
// DEC private mode 25 state as midterm exposes it.
func (e *Emulator) Cursor() domain.CursorPosition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CursorPosition{
		Row:     e.term.Cursor.Y,
		Col:     e.term.Cursor.X,
		Visible: e.term.CursorVisible,
	}
}

// Size returns the grid's current dimensions.
func (e *Emulator) Size() domain.TerminalSize {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.TerminalSize{Cols: e.cols, Rows: e.rows}
}

// TextDump renders the grid as plain text, one line per row, with
// trailing blank cells trimmed per row. This is the cheap console/log
// view: no style, no element detection.
func (e *Emulator) TextDump() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var b strings.Builder
	for row := 0; row < len(e.term.Content); row++ {
		line := e.term.Content[row]
		end := len(line)
		for end > 0 && line[end-1] == ' ' {
			end--
		}
		b.WriteString(string(line[:end]))
		if row < len(e.term.Content)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Row is one row's worth of styled cells, row-major left to right.
type Row struct {
	Cells []domain.ScreenCell
}

// Grid returns every row of the current screen as styled cells, the raw
// input to the VOM segmentation pass (internal/vom).
func (e *Emulator) Grid() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows := make([]Row, len(e.term.Content))
	for y, line := range e.term.Content {
		cells := make([]domain.ScreenCell, len(line))
		pos := 0
		var current midterm.Format
		style := styleFromFormat(current)
		for region := range e.term.Format.Regions(y) {
			if region.F != current {
				current = region.F
				style = styleFromFormat(current)
			}
			end := pos + region.Size
			if end > len(line) {
				end = len(line)
			}
			for i := pos; i < end; i++ {
				cells[i] = domain.ScreenCell{Char: line[i], Style: style}
			}
			pos = end
		}
		for ; pos < len(line); pos++ {
			cells[pos] = domain.ScreenCell{Char: line[pos], Style: domain.DefaultStyle}
		}
		rows[y] = Row{Cells: cells}
	}
	return rows
}

// styleFromFormat converts a midterm.Format into the daemon's comparable
// CellStyle key, reading the attribute fields directly instead of
// round-tripping through rendered ANSI text.
func styleFromFormat(f midterm.Format) domain.CellStyle {
	fg, bg := f.Fg, f.Bg
	if fg == nil {
		fg = domain.NoColor
	}
	if bg == nil {
		bg = domain.NoColor
	}
	return domain.CellStyle{
		Fg:        fg,
		Bg:        bg,
		Bold:      f.IsBold(),
		Underline: f.IsUnderline(),
		Inverse:   f.IsReverse(),
	}
}
