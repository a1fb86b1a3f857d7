package security

import "testing"

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			t.Fatalf("GenerateVerificationCode() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("GenerateVerificationCode() = %q, want 6 digits", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("GenerateVerificationCode() = %q, contains non-digit", code)
			}
		}
		seen[code] = true
	}
	// 50 draws from 900000 values colliding into one bucket is effectively
	// impossible; a single repeated value would suggest a broken source.
	if len(seen) < 2 {
		t.Error("GenerateVerificationCode() returned the same code repeatedly")
	}
}

func TestGenerateFamilyCodeIsUnique(t *testing.T) {
	if GenerateFamilyCode() == GenerateFamilyCode() {
		t.Error("GenerateFamilyCode() returned duplicate codes")
	}
}
