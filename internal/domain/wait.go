package domain

// WaitConditionKind discriminates the variant of a WaitCondition.
type WaitConditionKind string

const (
	WaitText       WaitConditionKind = "text"
	WaitTextGone   WaitConditionKind = "text_gone"
	WaitElement    WaitConditionKind = "element"
	WaitFocused    WaitConditionKind = "focused"
	WaitNotVisible WaitConditionKind = "not_visible"
	WaitValue      WaitConditionKind = "value"
	WaitStable     WaitConditionKind = "stable"
)

// WaitCondition is the predicate a `wait` use case polls for. Exactly one
// of the fields relevant to Kind is populated; see usecase/wait.go for the
// evaluation rules, including the documented behavior for WaitValue when
// the referenced element disappears mid-wait (treated as not-yet-satisfied).
type WaitCondition struct {
	Kind          WaitConditionKind
	Text          string
	ElementRef    string
	ExpectedValue string
}
