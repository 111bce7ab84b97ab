package security

import (
	"bytes"
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, err := HashPassword("secret12")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("secret12")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bytes.Equal(first, second) {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("secret12")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(string(hash), "$argon2id$v=19$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}
	if parts := strings.Split(string(hash), "$"); len(parts) != 6 {
		t.Fatalf("hash has %d segments, want 6: %s", len(parts), hash)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("whatever", []byte("not-a-hash")); err == nil {
		t.Fatal("expected error for malformed hash")
	}
	if _, err := VerifyPassword("whatever", []byte("$bcrypt$v=19$t=3,m=65536,p=2$c2FsdA$aGFzaA")); err == nil {
		t.Fatal("expected error for foreign algorithm")
	}
}
