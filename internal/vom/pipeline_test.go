package vom

import (
	"strings"
	"testing"

	"github.com/pproenca/agent-tui/internal/domain"
)

// styledCell builds one cell with an indexed background, for grids that
// exercise the color-sensitive heuristics.
func styledCell(ch rune, bg uint8) domain.ScreenCell {
	style := domain.CellStyle{Fg: domain.NoColor, Bg: domain.NoColor}
	if bg > 0 {
		style.Bg = domain.IndexedColor(bg)
	}
	return domain.ScreenCell{Char: ch, Style: style}
}

func rowFromString(s string, bg uint8) []domain.ScreenCell {
	cells := make([]domain.ScreenCell, 0, len(s))
	for _, r := range s {
		cells = append(cells, styledCell(r, bg))
	}
	return cells
}

// mixedGrid is a synthetic screen with a little of everything: a plain
// text row, a button-ish bracket literal, a checkbox, blank rows.
func mixedGrid() RowGrid {
	return RowGrid{Rows_: [][]domain.ScreenCell{
		rowFromString("Build status: passing", 0),
		rowFromString("[ Rebuild ]", 0),
		rowFromString("[X] verbose logs", 0),
		rowFromString("          ", 0),
		rowFromString("> item one", 0),
	}}
}

func TestSegmentClustersLieWithinGrid(t *testing.T) {
	grid := mixedGrid()
	for _, c := range Segment(grid) {
		if c.Rect.Y < 0 || c.Rect.Y >= grid.Rows() {
			t.Errorf("cluster row %d outside grid of %d rows", c.Rect.Y, grid.Rows())
		}
		if c.Rect.X < 0 || c.Rect.X+c.Rect.W > grid.Cols() {
			t.Errorf("cluster span [%d,%d) outside grid of %d cols", c.Rect.X, c.Rect.X+c.Rect.W, grid.Cols())
		}
		if c.Rect.H != 1 {
			t.Errorf("cluster height = %d, want 1", c.Rect.H)
		}
	}
}

func TestSegmentUnionIsSubsetOfNonWhitespaceCells(t *testing.T) {
	grid := mixedGrid()
	for _, c := range Segment(grid) {
		if c.IsWhitespace {
			t.Errorf("whitespace-only cluster %+v survived segmentation", c)
		}
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("cluster %+v has blank text but was not discarded", c)
		}
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	grid := mixedGrid()
	cursor := domain.CursorPosition{Row: 4, Col: 2, Visible: true}
	opts := DefaultClassifyOptions(grid.Cols())

	a := Classify(Segment(grid), cursor, opts)
	b := Classify(Segment(grid), cursor, opts)
	if len(a) != len(b) {
		t.Fatalf("component counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}

	snapA := FormatSnapshot(a, SnapshotOptions{InteractiveOnly: true})
	snapB := FormatSnapshot(b, SnapshotOptions{InteractiveOnly: true})
	if snapA.Tree != snapB.Tree || snapA.Stats != snapB.Stats {
		t.Fatalf("snapshots differ: %+v vs %+v", snapA, snapB)
	}
}

func TestClassifyTabInTopRowsWithDistinctBackground(t *testing.T) {
	// Row 0: a wide default-background run plus a highlighted "tab".
	row := append(rowFromString("                    ", 0), rowFromString(" Files ", 4)...)
	grid := RowGrid{Rows_: [][]domain.ScreenCell{row}}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(grid.Cols()))

	var found bool
	for _, c := range comps {
		if c.Role == domain.RoleTab {
			found = true
		}
	}
	if !found {
		t.Fatalf("no Tab classified in %+v", comps)
	}
}

func TestClassifyButtonBelowTabThreshold(t *testing.T) {
	rows := [][]domain.ScreenCell{
		rowFromString("                           ", 0),
		rowFromString("                           ", 0),
		rowFromString("                           ", 0),
	}
	// Row 2 is past the default tab threshold, so a highlighted run there
	// is a Button, not a Tab.
	rows[2] = append(rowFromString("                    ", 0), rowFromString(" Save ", 4)...)
	grid := RowGrid{Rows_: rows}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(grid.Cols()))

	for _, c := range comps {
		if c.Role == domain.RoleTab {
			t.Fatalf("run on row %d classified as Tab, want Button past the threshold", c.Bounds.Y)
		}
	}
	var found bool
	for _, c := range comps {
		if c.Role == domain.RoleButton {
			found = true
		}
	}
	if !found {
		t.Fatalf("no Button classified in %+v", comps)
	}
}

func TestClassifyProgressBar(t *testing.T) {
	grid := RowGrid{Rows_: [][]domain.ScreenCell{rowFromString("██████░░░░ 60%", 0)}}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(grid.Cols()))
	if comps[0].Role != domain.RoleProgressBar {
		t.Fatalf("role = %v, want ProgressBar", comps[0].Role)
	}
}

func TestClassifyStatusSpinner(t *testing.T) {
	for _, text := range []string{"⠋ compiling", "✓ done", "✗ failed"} {
		grid := RowGrid{Rows_: [][]domain.ScreenCell{rowFromString(text, 0)}}
		comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(grid.Cols()))
		if comps[0].Role != domain.RoleStatus {
			t.Errorf("text %q: role = %v, want Status", text, comps[0].Role)
		}
	}
}

func TestClassifyLinkPathWithLineSuffix(t *testing.T) {
	for _, text := range []string{"src/main.go:42", "./cmd/root.go:10:5", "https://example.com/docs"} {
		grid := RowGrid{Rows_: [][]domain.ScreenCell{rowFromString(text, 0)}}
		comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(grid.Cols()))
		if comps[0].Role != domain.RoleLink {
			t.Errorf("text %q: role = %v, want Link", text, comps[0].Role)
		}
	}
}

func TestClassifyInputAtCursor(t *testing.T) {
	grid := RowGrid{Rows_: [][]domain.ScreenCell{
		{styledCell('_', 0)},
	}}
	comps := Classify(Segment(grid), domain.CursorPosition{Row: 0, Col: 0, Visible: true}, DefaultClassifyOptions(1))
	if comps[0].Role != domain.RoleInput {
		t.Fatalf("role = %v, want Input for a single underscore cell under the cursor", comps[0].Role)
	}
}

func TestClassifyPanelFrameRow(t *testing.T) {
	grid := RowGrid{Rows_: [][]domain.ScreenCell{rowFromString("┌────────┐", 0)}}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(80))
	if comps[0].Role != domain.RolePanel && comps[0].Role != domain.RoleToolBlock {
		t.Fatalf("role = %v, want Panel or ToolBlock for a frame row", comps[0].Role)
	}
}

func TestClassifyFrameTopExtractsTitle(t *testing.T) {
	grid := RowGrid{Rows_: [][]domain.ScreenCell{rowFromString("┌── Files ──┐", 0)}}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(80))
	if comps[0].Role != domain.RolePanel {
		t.Fatalf("role = %v, want Panel for an edge-anchored frame top", comps[0].Role)
	}
	if comps[0].TextContent != "Files" {
		t.Fatalf("title = %q, want Files extracted from the top edge", comps[0].TextContent)
	}
}

func TestClassifyInsetWideFrameTopIsToolBlock(t *testing.T) {
	// A wide top edge inset from both screen edges reads as a modal-style
	// tool block rather than a plain panel. The border carries its own
	// background so it segments apart from the surrounding blank cells.
	row := append(rowFromString("  ", 0), rowFromString("┌──────── Confirm ────────┐", 4)...)
	grid := RowGrid{Rows_: [][]domain.ScreenCell{row}}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(60))
	if comps[0].Role != domain.RoleToolBlock {
		t.Fatalf("role = %v, want ToolBlock", comps[0].Role)
	}
	if comps[0].TextContent != "Confirm" {
		t.Fatalf("title = %q, want Confirm", comps[0].TextContent)
	}
}

func TestClassifyPriorityCheckboxOverButton(t *testing.T) {
	// "[X] ..." matches both the checkbox prefix and the bracket-literal
	// button shape; checkbox has higher priority.
	grid := RowGrid{Rows_: [][]domain.ScreenCell{rowFromString("[X]", 0)}}
	comps := Classify(Segment(grid), domain.CursorPosition{}, DefaultClassifyOptions(80))
	if comps[0].Role != domain.RoleCheckbox {
		t.Fatalf("role = %v, want Checkbox to win the priority tie", comps[0].Role)
	}
}
