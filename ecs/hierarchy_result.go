package ecs

// HierarchyResult is the outcome of a hierarchy mutation. Rejections leave the
// hierarchy exactly as it was.
type HierarchyResult int

const (
	HierarchyOk HierarchyResult = iota
	HierarchyUnchanged
	HierarchyRejectedSelfParent
	HierarchyRejectedMissingParent
	HierarchyRejectedCycle
	HierarchyRejectedMissingSelf
)

func (r HierarchyResult) String() string {
	switch r {
	case HierarchyOk:
		return "ok"
	case HierarchyUnchanged:
		return "unchanged"
	case HierarchyRejectedSelfParent:
		return "rejected: self parent"
	case HierarchyRejectedMissingParent:
		return "rejected: missing parent"
	case HierarchyRejectedCycle:
		return "rejected: cycle"
	case HierarchyRejectedMissingSelf:
		return "rejected: missing self"
	default:
		return "unknown"
	}
}

// Accepted reports whether the hierarchy now reflects the request.
func (r HierarchyResult) Accepted() bool {
	return r == HierarchyOk || r == HierarchyUnchanged
}
