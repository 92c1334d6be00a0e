package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, exp, err := Generate(opts, 42)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry %v already passed", exp)
	}

	uid, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid != 42 {
		t.Fatalf("Verify = %d, want 42", uid)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("secret-a")), 42)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatal("Verify accepted a token signed with another secret")
	}
}

func TestVerifyExpired(t *testing.T) {
	// TTL <= 0 falls back to the default inside Generate, so use the
	// smallest positive window instead.
	opts := DefaultOptions([]byte("test-secret"))
	opts.TTL = time.Nanosecond
	token, _, err := Generate(opts, 42)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("Verify accepted an expired token")
	}
}

func TestVerifyGarbage(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	if _, err := Verify(opts, "not-a-token"); err == nil {
		t.Fatal("Verify accepted garbage")
	}
}

func TestUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))
	opts.Alg = "RS256"
	if _, _, err := Generate(opts, 1); err == nil {
		t.Fatal("Generate accepted RS256")
	}
	if _, err := Verify(opts, "whatever"); err == nil {
		t.Fatal("Verify accepted RS256 options")
	}
}
