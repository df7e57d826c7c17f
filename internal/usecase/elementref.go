package usecase

import (
	"regexp"
	"strconv"

	"github.com/pproenca/agent-tui/internal/domain"
)

var canonicalRefRe = regexp.MustCompile(`^@e\{(\d+)\}$`)
var legacyRefRe = regexp.MustCompile(`^@(btn|inp|cb|rb|sel|mi|li|lnk)\{(\d+)\}$`)

// legacyRoles maps each legacy prefix to the Role it addresses. The
// legacy grammar also names radio-button (`@rb`), select (`@sel`), and
// list-item (`@li`) prefixes that predate the current role set; they
// fold onto the closest role the detection pipeline actually produces:
// radio buttons and list items render as marker-prefixed rows, matching
// Checkbox and MenuItem respectively, and a select's options are menu
// items once opened.
var legacyRoles = map[string]domain.Role{
	"btn": domain.RoleButton,
	"inp": domain.RoleInput,
	"cb":  domain.RoleCheckbox,
	"rb":  domain.RoleCheckbox,
	"sel": domain.RoleMenuItem,
	"mi":  domain.RoleMenuItem,
	"li":  domain.RoleMenuItem,
	"lnk": domain.RoleLink,
}

// resolveElementRef resolves an @e{N} or legacy-prefix ref against a
// snapshot's element list. @e{N} is the canonical 1-based index over the
// full ordered list; a legacy ref addresses the N-th element whose type
// matches the prefix, in detection order.
func resolveElementRef(elements []domain.Element, ref string) (domain.Element, bool) {
	if m := canonicalRefRe.FindStringSubmatch(ref); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= len(elements) {
			return elements[n-1], true
		}
		return domain.Element{}, false
	}
	if m := legacyRefRe.FindStringSubmatch(ref); m != nil {
		role, ok := legacyRoles[m[1]]
		if !ok {
			return domain.Element{}, false
		}
		n, _ := strconv.Atoi(m[2])
		count := 0
		for _, e := range elements {
			if e.ElementType == role {
				count++
				if count == n {
					return e, true
				}
			}
		}
		return domain.Element{}, false
	}
	return domain.Element{}, false
}
