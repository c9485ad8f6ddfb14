package domain

// Page status constants
const (
	PageStatusDraft       = "DRAFT"
	PageStatusOutline     = "OUTLINE_GENERATED"
	PageStatusDescription = "DESCRIPTION_GENERATED"
	PageStatusImage       = "IMAGE_GENERATED"
	PageStatusCompleted   = "COMPLETED"
	PageStatusFailed      = "FAILED"
)

// pageStatusRank orders the generation stages. FAILED sits outside the
// forward progression.
var pageStatusRank = map[string]int{
	PageStatusDraft:       0,
	PageStatusOutline:     1,
	PageStatusDescription: 2,
	PageStatusImage:       3,
	PageStatusCompleted:   4,
}

// ValidPageStatus checks if a status token is known.
func ValidPageStatus(s string) bool {
	if s == PageStatusFailed {
		return true
	}
	_, ok := pageStatusRank[s]
	return ok
}

// CanTransitionPage reports whether a page may move from one status to
// another. Stages only move forward (skipping is allowed since generation
// steps are independently triggered), re-entering the current stage is a
// retry, FAILED is reachable from any non-terminal state, and a failed page
// may retry into any forward stage.
func CanTransitionPage(from, to string) bool {
	if !ValidPageStatus(from) || !ValidPageStatus(to) {
		return false
	}
	if to == PageStatusFailed {
		return from != PageStatusCompleted && from != PageStatusFailed
	}
	if from == PageStatusFailed {
		return true
	}
	return pageStatusRank[to] >= pageStatusRank[from]
}

// TransitionPage applies a status change, rejecting backward moves.
func (p *Page) TransitionPage(to string) error {
	if !CanTransitionPage(p.Status, to) {
		return ErrInvalidPageStatus
	}
	p.Status = to
	return nil
}
