package service

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndCompare(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !h.Compare(hash, "s3cret") {
		t.Error("Compare rejected the right password")
	}
	if h.Compare(hash, "S3cret") {
		t.Error("Compare accepted the wrong password")
	}
	if h.Compare("not-a-hash", "s3cret") {
		t.Error("Compare accepted a garbage hash")
	}
}

func TestBcryptHasher_Salted(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	t.Parallel()

	if got := NewBcryptHasher(0).Cost; got != bcrypt.DefaultCost {
		t.Errorf("cost 0 -> %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewBcryptHasher(99).Cost; got != bcrypt.DefaultCost {
		t.Errorf("cost 99 -> %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewBcryptHasher(12).Cost; got != 12 {
		t.Errorf("cost 12 -> %d, want 12", got)
	}
}
