package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfUnwrapsChains(t *testing.T) {
	t.Parallel()
	base := Errorf(KindNotFound, "patient not found")
	wrapped := fmt.Errorf("loading detail: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("kind lost through wrapping: %s", KindOf(wrapped))
	}
	if !IsNotFound(wrapped) {
		t.Fatal("IsNotFound should see through the chain")
	}
}

func TestKindOfForeignErrorIsUnknown(t *testing.T) {
	t.Parallel()
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("foreign errors must categorize as unknown")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatal("nil categorizes as unknown")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection refused")
	err := Wrap(KindNetwork, cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if err.Error() == "" {
		t.Fatal("wrapped error needs a message")
	}
}
