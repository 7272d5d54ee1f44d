package password

import (
	"regexp"
	"testing"
)

func TestHashVerify(t *testing.T) {
	digest := Hash("Secreta123!")

	if !Verify("Secreta123!", digest) {
		t.Error("correct password should verify")
	}
	if Verify("Secreta123?", digest) {
		t.Error("wrong password should not verify")
	}
	if Verify("", digest) {
		t.Error("empty password should not verify")
	}
}

func TestHash_Format(t *testing.T) {
	digest := Hash("some password")

	// 256-bit digest as lowercase hex is exactly 64 characters.
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(digest) {
		t.Errorf("digest is not 64 lowercase hex chars: %q", digest)
	}
}

func TestHash_Deterministic(t *testing.T) {
	if Hash("abc") != Hash("abc") {
		t.Error("hash must be deterministic")
	}
	if Hash("abc") == Hash("abd") {
		t.Error("different passwords must not collide trivially")
	}
}
