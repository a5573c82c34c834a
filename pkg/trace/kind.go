package trace

import "strings"

// FrameKind is the step category of a frame, derived from its label.
type FrameKind string

// Frame kinds emitted by the push-relabel tracer.
const (
	KindInitial FrameKind = "initial"
	KindRelabel FrameKind = "relabel"
	KindPath    FrameKind = "path"
	KindPush    FrameKind = "push"
	KindFinal   FrameKind = "final"
	KindOther   FrameKind = "other"
)

// KindOf classifies a frame label. Labels are free text; matching is by
// case-insensitive prefix ("Initial", "After relabel", "Traced path",
// "After pushing", "Final").
func KindOf(label string) FrameKind {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "initial"):
		return KindInitial
	case strings.HasPrefix(l, "after relabel"):
		return KindRelabel
	case strings.HasPrefix(l, "traced path"):
		return KindPath
	case strings.HasPrefix(l, "after push"):
		return KindPush
	case strings.HasPrefix(l, "final"):
		return KindFinal
	default:
		return KindOther
	}
}
