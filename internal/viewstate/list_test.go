package viewstate

import (
	"errors"
	"testing"
)

func TestListInitialLoadLifecycle(t *testing.T) {
	t.Parallel()
	l := NewList[string]()
	if l.Phase() != PhaseLoading {
		t.Fatalf("new list should be loading, got %s", l.Phase())
	}

	gen := l.Begin()
	if !l.Resolve(gen, []string{"a", "b"}, nil) {
		t.Fatal("resolve of current generation should apply")
	}
	if l.Phase() != PhaseReady || l.Len() != 2 {
		t.Fatalf("expected ready with 2 items, got %s with %d", l.Phase(), l.Len())
	}
}

func TestListInitialLoadFailure(t *testing.T) {
	t.Parallel()
	l := NewList[int]()
	gen := l.Begin()
	boom := errors.New("backend down")
	l.Resolve(gen, nil, boom)
	if l.Phase() != PhaseFailed {
		t.Fatalf("initial load failure should be Failed, got %s", l.Phase())
	}
	if l.Err() == nil {
		t.Fatal("expected the failure to be retained")
	}
}

func TestListStaleResponseDiscarded(t *testing.T) {
	t.Parallel()
	l := NewList[string]()
	stale := l.Begin()
	fresh := l.Begin()

	if l.Resolve(stale, []string{"old"}, nil) {
		t.Fatal("stale generation must not apply")
	}
	if l.Phase() != PhaseLoading {
		t.Fatalf("stale resolve must not change phase, got %s", l.Phase())
	}

	if !l.Resolve(fresh, []string{"new"}, nil) {
		t.Fatal("fresh generation should apply")
	}
	if l.Items()[0] != "new" {
		t.Fatalf("expected fresh items, got %v", l.Items())
	}

	// A stale success arriving after the fresh one must not clobber it.
	if l.Resolve(stale, []string{"older still"}, nil) {
		t.Fatal("late stale response must still be discarded")
	}
	if l.Items()[0] != "new" {
		t.Fatalf("working copy overwritten by stale response: %v", l.Items())
	}
}

func TestListRefetchFailureKeepsWorkingCopy(t *testing.T) {
	t.Parallel()
	l := NewList[string]()
	l.Resolve(l.Begin(), []string{"kept"}, nil)

	gen := l.Begin()
	if l.Phase() != PhaseReady {
		t.Fatalf("refetch over existing copy must not flip to loading, got %s", l.Phase())
	}
	l.Resolve(gen, nil, errors.New("flaky network"))

	if l.Phase() != PhaseReady {
		t.Fatalf("refetch failure must keep showing the copy, got %s", l.Phase())
	}
	if l.Len() != 1 || l.Items()[0] != "kept" {
		t.Fatalf("working copy lost on refetch failure: %v", l.Items())
	}
	if l.Err() == nil {
		t.Fatal("refetch failure should still be observable")
	}
}

func TestListNilItemsBecomeEmpty(t *testing.T) {
	t.Parallel()
	l := NewList[int]()
	l.Resolve(l.Begin(), nil, nil)
	if l.Phase() != PhaseReady {
		t.Fatalf("empty result is a valid ready state, got %s", l.Phase())
	}
	if l.Items() == nil {
		t.Fatal("ready list should hold an empty slice, not nil")
	}
}

func TestListInvalidate(t *testing.T) {
	t.Parallel()
	l := NewList[int]()
	l.Resolve(l.Begin(), []int{1}, nil)
	l.Invalidate()
	if l.Phase() != PhaseLoading || l.Len() != 0 {
		t.Fatalf("invalidate should reset to loading, got %s with %d items", l.Phase(), l.Len())
	}
}
