package utils

import "testing"

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("password stored in the clear")
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	// Out-of-range costs fall back to the bcrypt default instead of
	// failing registration.
	if _, err := HashPassword("pw", 99); err != nil {
		t.Fatalf("hash with oversized cost: %v", err)
	}
	if _, err := HashPassword("pw", 0); err != nil {
		t.Fatalf("hash with zero cost: %v", err)
	}
}
