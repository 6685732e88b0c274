package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	password := []byte("SecurePass123!")
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == string(password) {
		t.Fatalf("Hash returned %q", hash)
	}
	if !h.Verify(hash, password) {
		t.Error("Verify with correct password: want true")
	}
	if h.Verify(hash, []byte("WrongPass123!")) {
		t.Error("Verify with wrong password: want false")
	}
}

func TestHasher_Salted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash([]byte("same"))
	b, _ := h.Hash([]byte("same"))
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
	if !h.Verify(a, []byte("same")) || !h.Verify(b, []byte("same")) {
		t.Error("both hashes must verify")
	}
}

func TestHasher_MalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if h.Verify("not-a-bcrypt-hash", []byte("x")) {
		t.Error("malformed hash must not verify")
	}
	if h.Verify("", []byte("")) {
		t.Error("empty hash must not verify")
	}
}

func TestHasher_Compare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("SecurePass123!"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := h.Compare(hash, []byte("SecurePass123!")); err != nil {
		t.Errorf("Compare match: %v", err)
	}
	if err := h.Compare(hash, []byte("WrongPass123!")); !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		t.Errorf("Compare mismatch: want ErrMismatchedHashAndPassword, got %v", err)
	}
	for _, bad := range []string{"", "not-a-bcrypt-hash", "$2a$04$short"} {
		if err := h.Compare(bad, []byte("x")); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("Compare(%q): want ErrMalformedHash, got %v", bad, err)
		}
	}
}

func TestHasher_TooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := h.Hash(long); err == nil {
		t.Error("73 byte password: want error")
	}
}

func TestHasher_Cost(t *testing.T) {
	if h := NewHasher(12); h.Cost() != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost())
	}
	if h := NewHasher(0); h.Cost() != bcrypt.DefaultCost {
		t.Errorf("zero cost: want DefaultCost, got %d", h.Cost())
	}
	if h := NewHasher(2); h.Cost() != bcrypt.MinCost {
		t.Errorf("low cost: want MinCost, got %d", h.Cost())
	}
	if h := NewHasher(99); h.Cost() != bcrypt.MaxCost {
		t.Errorf("high cost: want MaxCost, got %d", h.Cost())
	}
}
