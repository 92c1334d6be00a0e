package errs

import (
	"testing"

	"github.com/pkg/errors"
)

func TestWithDetailKeepsOriginal(t *testing.T) {
	detailed := ErrGroupNotFound.WithDetail("group 42")
	if detailed == ErrGroupNotFound {
		t.Fatal("WithDetail must return a copy")
	}
	if ErrGroupNotFound.Detail != "" {
		t.Fatalf("original gained detail %q", ErrGroupNotFound.Detail)
	}
	if detailed.Code != ErrGroupNotFound.Code {
		t.Fatalf("copy changed code to %d", detailed.Code)
	}
	if !ErrGroupNotFound.Is(detailed) {
		t.Fatal("detailed copy no longer matches its base")
	}
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	wrapped := errors.Wrap(ErrInsufficientCredits, "deduct 0.2")
	if !ErrInsufficientCredits.Is(wrapped) {
		t.Fatal("Is failed to match a wrapped CodeError")
	}
	if ErrGroupFull.Is(wrapped) {
		t.Fatal("Is matched an unrelated code")
	}
	if ErrArgs.Is(errors.New("plain")) {
		t.Fatal("Is matched a non-CodeError")
	}
}

func TestCode(t *testing.T) {
	if got := Code(errors.Wrap(ErrTokenExpired, "verify")); got != ErrTokenExpired.Code {
		t.Fatalf("Code = %d, want %d", got, ErrTokenExpired.Code)
	}
	if got := Code(errors.New("plain")); got != 500 {
		t.Fatalf("Code(plain) = %d, want 500", got)
	}
}
