package auth

import (
	"strings"
	"testing"
)

// Cost 4 is the minimum bcrypt allows; it keeps each test in the
// millisecond range instead of ~250ms.
func newTestPasswordService() *PasswordService {
	return newPasswordServiceWithCost(4)
}

// =========================================================================
// ROUND-TRIP TESTS
// =========================================================================

func TestPassword_HashVerifyRoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"simple", "whakarongo-mai-8"},
		{"special characters", "kōrero!@#$%^"},
		{"unicode", "ṣùgùré-òwó"},
		{"leading and trailing spaces", "  spaces kept verbatim  "},
		{"exactly 72 bytes", strings.Repeat("a", 72)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if !strings.HasPrefix(hash, "$2") {
				t.Errorf("Hash() output %q does not look like bcrypt", hash)
			}
			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}

func TestPassword_SaltIsRandom(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt salts each hash, so two hashes of the same password must
	// differ — otherwise rainbow tables would work.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")
	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

// =========================================================================
// LENGTH CEILING
// =========================================================================

func TestPassword_RejectsOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	// bcrypt truncates at 72 bytes; we refuse instead.
	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() should reject passwords longer than 72 bytes")
	}
}

// =========================================================================
// VERIFY FAILURE MODES
// =========================================================================

func TestPassword_VerifyFailures(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("the-real-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	cases := []struct {
		name      string
		hash      string
		plaintext string
	}{
		{"wrong password", hash, "the-wrong-password"},
		{"empty password", hash, ""},
		{"garbage hash", "not-a-valid-bcrypt-hash", "the-real-password"},
		// Google sign-in accounts store an empty hash; password login
		// against them must fail, not panic or match.
		{"google account without password", "", "anything"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ps.Verify(tc.hash, tc.plaintext); err == nil {
				t.Error("Verify() should have returned an error")
			}
		})
	}
}
