package xodto

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorIsByKind(t *testing.T) {
	err := fmt.Errorf("join: %w", NewError(KindRoomFull, "Room full."))
	if !errors.Is(err, &DomainError{Kind: KindRoomFull}) {
		t.Fatalf("expected kind match")
	}
	if errors.Is(err, &DomainError{Kind: KindGameNotFound}) {
		t.Fatalf("unexpected kind match")
	}
	kind, ok := KindOf(err)
	if !ok || kind != KindRoomFull {
		t.Fatalf("KindOf=%v,%v", kind, ok)
	}
	if err.Error() != "join: Room full." {
		t.Fatalf("message=%q", err.Error())
	}
}

func TestWrapUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(KindConflict, "", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected unwrap to base")
	}
	if err.Error() != "boom" {
		t.Fatalf("message=%q", err.Error())
	}
	if _, ok := KindOf(base); ok {
		t.Fatalf("plain error has no kind")
	}
}
