package domain

// Role is the semantic classification assigned to a VOM cluster.
type Role string

const (
	RoleButton       Role = "Button"
	RoleTab          Role = "Tab"
	RoleInput        Role = "Input"
	RoleStaticText   Role = "StaticText"
	RolePanel        Role = "Panel"
	RoleCheckbox     Role = "Checkbox"
	RoleMenuItem     Role = "MenuItem"
	RoleStatus       Role = "Status"
	RoleToolBlock    Role = "ToolBlock"
	RolePromptMarker Role = "PromptMarker"
	RoleProgressBar  Role = "ProgressBar"
	RoleLink         Role = "Link"
	RoleErrorMessage Role = "ErrorMessage"
	RoleDiffLine     Role = "DiffLine"
	RoleCodeBlock    Role = "CodeBlock"
)

// IsInteractive reports whether elements of this role accept focus/input
// and are therefore addressable by the keystroke/fill/focus family of
// operations.
func (r Role) IsInteractive() bool {
	switch r {
	case RoleButton, RoleTab, RoleInput, RoleCheckbox, RoleMenuItem, RolePromptMarker:
		return true
	default:
		return false
	}
}

// Rect is an axis-aligned bounding box in cell coordinates. Height is
// always 1 for a VOM cluster/component since segmentation never spans rows.
type Rect struct {
	X, Y, W, H int
}

// Component is one classified cluster, the output of the VOM pipeline.
type Component struct {
	Role        Role
	Bounds      Rect
	TextContent string
	VisualHash  uint64
	Selected    bool
}

// Element is an addressable component exposed to RPC clients via @e{N}
// refs. It is a thin, renumbered view over a Component list produced by
// one detect_elements() call; refs are valid only within that snapshot.
type Element struct {
	ElementRef  string
	ElementType Role
	Label       string
	Value       string
	Position    Rect
	Focused     bool
	Selected    bool
	Checked     *bool
	Disabled    *bool
	Hint        string
}
