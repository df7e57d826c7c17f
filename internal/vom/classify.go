package vom

import (
	"regexp"
	"strings"

	"github.com/pproenca/agent-tui/internal/domain"
)

// ClassifyOptions tunes geometry-dependent heuristics. Clusters in the
// top TabRowThreshold rows are eligible for the Tab role; frames at
// least ModalMinWidth wide and inset from the screen edges read as tool
// blocks rather than panels.
type ClassifyOptions struct {
	TabRowThreshold int
	ModalMinWidth   int
	ModalMinHeight  int
	TotalCols       int
}

// DefaultClassifyOptions returns the defaults for a screen of the given
// width.
func DefaultClassifyOptions(totalCols int) ClassifyOptions {
	return ClassifyOptions{
		TabRowThreshold: 2,
		ModalMinWidth:   20,
		ModalMinHeight:  3,
		TotalCols:       totalCols,
	}
}

var (
	checkboxPrefixes = []string{"[X]", "[x]", "[ ]", "(X)", "(x)", "( )", "☐", "☑"}
	menuBullets      = []string{">", "❯", "▸", "•", "▪"}
	promptGlyphs     = []string{">", "▶", "$"}
	spinnerFrames    = "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏|/-\\"
	bulletStatus     = []string{"✓", "✗"}
	fillGlyphs       = "█▓▒░"

	linkPathRe = regexp.MustCompile(`^(?:\.{0,2}/)?[\w.\-/]+\.\w+(?::\d+(?::\d+)?)?$`)
	linkURLRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://\S+$`)
	errorRe    = regexp.MustCompile(`(?i)^(error:|error\[|panic:)`)
	percentRe  = regexp.MustCompile(`\d{1,3}%`)

	boxDrawing = "─│┌┐└┘├┤┬┴┼═║╔╗╚╝╠╣╦╩╬+-|"
)

// Classify assigns a Role to every cluster. When more than one rule
// would match, the first in this priority order wins: Input, Checkbox,
// ProgressBar, ToolBlock/Panel, Tab, Button, MenuItem, Status,
// PromptMarker, Link, ErrorMessage, DiffLine, StaticText.
func Classify(clusters []Cluster, cursor domain.CursorPosition, opts ClassifyOptions) []domain.Component {
	rowBackgrounds := dominantRowBackground(clusters, opts.TotalCols)
	components := make([]domain.Component, 0, len(clusters))

	for _, c := range clusters {
		role := classifyOne(c, cursor, opts, rowBackgrounds)
		text := c.Text
		if role == domain.RolePanel || role == domain.RoleToolBlock {
			if title, ok := frameTitle(c.Text); ok {
				text = title
			}
		}
		components = append(components, domain.Component{
			Role:        role,
			Bounds:      c.Rect,
			TextContent: text,
			VisualHash:  visualHash(c.Rect, c.Text, c.Style),
			Selected:    isSelected(role, c),
		})
	}
	return components
}

func classifyOne(c Cluster, cursor domain.CursorPosition, opts ClassifyOptions, rowBg map[int]domain.Color) domain.Role {
	if isInput(c, cursor) {
		return domain.RoleInput
	}
	if isCheckbox(c.Text) {
		return domain.RoleCheckbox
	}
	if isProgressBar(c.Text) {
		return domain.RoleProgressBar
	}
	if isFrame(c.Text) || isFrameTop(c.Text) {
		// Each Cluster is confined to a single row by segmentation, so a
		// frame border is recognized one edge-row at a time; width plus
		// inset-from-edge stands in for an inner-area check against
		// ModalMinHeight, which needs multi-row context a single cluster
		// does not carry.
		insetFromEdges := c.Rect.X > 0 && c.Rect.X+c.Rect.W < opts.TotalCols
		if c.Rect.W >= opts.ModalMinWidth && insetFromEdges {
			return domain.RoleToolBlock
		}
		return domain.RolePanel
	}
	if isTab(c, rowBg, opts) {
		return domain.RoleTab
	}
	if isButton(c, rowBg) {
		return domain.RoleButton
	}
	if isMenuItem(c.Text) {
		return domain.RoleMenuItem
	}
	if isStatus(c.Text) {
		return domain.RoleStatus
	}
	if isPromptMarker(c) {
		return domain.RolePromptMarker
	}
	if isLink(c.Text) {
		return domain.RoleLink
	}
	if errorRe.MatchString(c.Text) {
		return domain.RoleErrorMessage
	}
	if isDiffLine(c.Text) {
		return domain.RoleDiffLine
	}
	return domain.RoleStaticText
}

func isInput(c Cluster, cursor domain.CursorPosition) bool {
	if c.Rect.H != 1 {
		return false
	}
	trimmed := strings.Trim(c.Text, " _")
	cellIsBlank := c.Rect.W == 1 && trimmed == ""
	cursorInCluster := cursor.Row == c.Rect.Y && cursor.Col >= c.Rect.X && cursor.Col < c.Rect.X+c.Rect.W
	if cellIsBlank && cursorInCluster {
		return true
	}
	// A prompt line counts as an input only while the cursor sits on it;
	// otherwise "> item" rows are menu items, not prompts.
	if c.Rect.X == 0 && cursor.Row == c.Rect.Y {
		for _, g := range promptGlyphs {
			if strings.HasPrefix(c.Text, g) {
				return true
			}
		}
	}
	return false
}

func isCheckbox(text string) bool {
	for _, p := range checkboxPrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

func isProgressBar(text string) bool {
	fillCount := 0
	runeCount := 0
	for _, r := range text {
		runeCount++
		if strings.ContainsRune(fillGlyphs, r) {
			fillCount++
		}
	}
	if runeCount > 0 && fillCount*2 >= runeCount {
		return true
	}
	if strings.HasPrefix(text, "[") && strings.ContainsAny(text, "=#-") {
		return percentRe.MatchString(text) || strings.Contains(text, "]")
	}
	return false
}

func isFrame(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if !strings.ContainsRune(boxDrawing, r) {
			return false
		}
	}
	return true
}

var (
	frameTopLeft  = "┌╔╭+"
	frameTopRight = "┐╗╮+"
)

// isFrameTop recognizes a top border row that carries an embedded title,
// e.g. "┌── Files ──┐": corner runes at both ends with any mix of border
// runes, spaces, and title text between them. Padding spaces sharing the
// border's style end up inside the same cluster, so the text is trimmed
// before the corners are checked.
func isFrameTop(text string) bool {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) < 2 {
		return false
	}
	return strings.ContainsRune(frameTopLeft, runes[0]) &&
		strings.ContainsRune(frameTopRight, runes[len(runes)-1])
}

// frameTitle extracts the title between a top edge's corners, dropping
// the border runes themselves. ok is false when the cluster is not a top
// edge or the edge has no title.
func frameTitle(text string) (string, bool) {
	if !isFrameTop(text) {
		return "", false
	}
	runes := []rune(strings.TrimSpace(text))
	var b strings.Builder
	for _, r := range runes[1 : len(runes)-1] {
		if strings.ContainsRune(boxDrawing, r) {
			continue
		}
		b.WriteRune(r)
	}
	title := strings.TrimSpace(b.String())
	if title == "" {
		return "", false
	}
	return title, true
}

func isTab(c Cluster, rowBg map[int]domain.Color, opts ClassifyOptions) bool {
	if c.Rect.Y >= opts.TabRowThreshold {
		return false
	}
	return hasDistinctBackground(c, rowBg)
}

func isButton(c Cluster, rowBg map[int]domain.Color) bool {
	if hasDistinctBackground(c, rowBg) && c.Rect.W >= 2 && c.Rect.H == 1 {
		return true
	}
	if strings.HasPrefix(c.Text, "[") && strings.HasSuffix(c.Text, "]") && len([]rune(c.Text)) < 30 {
		return true
	}
	return false
}

func hasDistinctBackground(c Cluster, rowBg map[int]domain.Color) bool {
	dominant, ok := rowBg[c.Rect.Y]
	if !ok {
		return false
	}
	bg := c.Style.Bg
	if bg == nil {
		bg = domain.NoColor
	}
	return bg != dominant && bg != domain.NoColor
}

func isMenuItem(text string) bool {
	for _, b := range menuBullets {
		if strings.HasPrefix(text, b) && strings.TrimSpace(text[len(b):]) != "" {
			return true
		}
	}
	return false
}

func isStatus(text string) bool {
	if text == "" {
		return false
	}
	first := []rune(text)[0]
	if strings.ContainsRune(spinnerFrames, first) {
		return true
	}
	for _, b := range bulletStatus {
		if strings.HasPrefix(text, b) {
			return true
		}
	}
	return false
}

func isPromptMarker(c Cluster) bool {
	if c.Rect.X != 0 || c.Rect.W != 1 {
		return false
	}
	for _, g := range promptGlyphs {
		if c.Text == g {
			return true
		}
	}
	return false
}

func isLink(text string) bool {
	return linkPathRe.MatchString(text) || linkURLRe.MatchString(text)
}

func isDiffLine(text string) bool {
	trimmed := strings.TrimLeft(text, " ")
	return strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "@@")
}

func isSelected(role domain.Role, c Cluster) bool {
	switch role {
	case domain.RoleCheckbox:
		return strings.HasPrefix(c.Text, "[X]") || strings.HasPrefix(c.Text, "[x]") ||
			strings.HasPrefix(c.Text, "(X)") || strings.HasPrefix(c.Text, "(x)") || strings.HasPrefix(c.Text, "☑")
	case domain.RoleMenuItem:
		return c.Style.Inverse || c.Style.Bold
	default:
		return false
	}
}

// dominantRowBackground computes, for each row, the background color
// covering the most columns — the "row background" baseline Button/Tab
// detection compares against. Whitespace clusters are already gone by
// classification time, so the columns no surviving cluster covers are
// credited to the terminal's default background; a highlighted run on an
// otherwise plain row therefore stays distinct even when it is the only
// cluster left on that row.
func dominantRowBackground(clusters []Cluster, totalCols int) map[int]domain.Color {
	widthByBg := map[int]map[domain.Color]int{}
	coveredByRow := map[int]int{}
	for _, c := range clusters {
		m := widthByBg[c.Rect.Y]
		if m == nil {
			m = map[domain.Color]int{}
			widthByBg[c.Rect.Y] = m
		}
		m[c.Style.Bg] += c.Rect.W
		coveredByRow[c.Rect.Y] += c.Rect.W
	}
	out := make(map[int]domain.Color, len(widthByBg))
	for row, m := range widthByBg {
		if uncovered := totalCols - coveredByRow[row]; uncovered > 0 {
			m[domain.NoColor] += uncovered
		}
		dominant := domain.Color(domain.NoColor)
		best := 0
		for color, w := range m {
			if w > best {
				best = w
				dominant = color
			}
		}
		out[row] = dominant
	}
	return out
}

// visualHash is a stable hash over (rect, text, style); two components
// with equal hash are structurally identical, per the Component glossary
// entry. FNV-1a keeps this dependency-free.
func visualHash(rect domain.Rect, text string, style domain.CellStyle) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211

	h := uint64(offset64)
	mix := func(b byte) {
		h ^= uint64(b)
		h *= prime64
	}
	mixInt := func(n int) {
		mix(byte(n))
		mix(byte(n >> 8))
		mix(byte(n >> 16))
		mix(byte(n >> 24))
	}
	mixString := func(s string) {
		for i := 0; i < len(s); i++ {
			mix(s[i])
		}
	}
	mixInt(rect.X)
	mixInt(rect.Y)
	mixInt(rect.W)
	mixInt(rect.H)
	mixString(text)
	mix(boolByte(style.Bold))
	mix(boolByte(style.Underline))
	mix(boolByte(style.Inverse))
	fg, bg := style.Fg, style.Bg
	if fg == nil {
		fg = domain.NoColor
	}
	if bg == nil {
		bg = domain.NoColor
	}
	mixString(fg.Sequence(false))
	mixString(bg.Sequence(true))
	return h
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
