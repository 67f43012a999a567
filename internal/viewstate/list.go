// Package viewstate holds the client-side state machinery shared by
// every list view: the Loading/Ready/Failed lifecycle with stale
// response suppression, pure filter/pagination projections, and the
// restartable poll timer used by the inbox.
//
// A List is confined to the UI event loop and needs no locking; the
// Poller is the only concurrent piece.
package viewstate

// Phase is the lifecycle of a list view's working copy.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFailed
)

// String returns the display name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// List owns the working copy of one remote collection. Every fetch is
// stamped with a generation; a response that resolves after a newer
// fetch was issued is discarded so it cannot overwrite fresher state.
//
// Mutations never touch the working copy directly. The reconciliation
// policy is refetch-after-mutation: the caller issues the mutation,
// then on success begins a fresh fetch. A failed mutation leaves the
// prior Ready state fully intact.
type List[T any] struct {
	phase Phase
	items []T
	err   error
	gen   uint64
}

// NewList returns an empty list in the Loading phase.
func NewList[T any]() *List[T] {
	return &List[T]{phase: PhaseLoading}
}

// Begin registers a new in-flight fetch and returns its generation.
// The phase moves to Loading only when no working copy exists yet;
// refetches keep showing the previous copy until they resolve.
func (l *List[T]) Begin() uint64 {
	l.gen++
	if l.items == nil {
		l.phase = PhaseLoading
	}
	return l.gen
}

// Resolve applies a fetch result. It reports false, leaving all state
// untouched, when gen is not the latest issued generation.
func (l *List[T]) Resolve(gen uint64, items []T, err error) bool {
	if gen != l.gen {
		return false
	}
	if err != nil {
		// A refetch failure over an existing copy keeps the copy on
		// screen; only an initial load failure shows the error view.
		if l.items == nil {
			l.phase = PhaseFailed
		}
		l.err = err
		return true
	}
	if items == nil {
		items = []T{}
	}
	l.phase = PhaseReady
	l.items = items
	l.err = nil
	return true
}

// Invalidate forgets the working copy so the next Begin shows Loading
// again. Used when the view's scope changes (another patient, another
// partner).
func (l *List[T]) Invalidate() {
	l.items = nil
	l.err = nil
	l.phase = PhaseLoading
}

// Phase returns the current lifecycle phase.
func (l *List[T]) Phase() Phase { return l.phase }

// Err returns the most recent fetch error, nil when healthy.
func (l *List[T]) Err() error { return l.err }

// Items returns the working copy. Callers must treat it as read-only;
// derived views are computed from it, never stored back.
func (l *List[T]) Items() []T { return l.items }

// Len returns the working copy size.
func (l *List[T]) Len() int { return len(l.items) }
