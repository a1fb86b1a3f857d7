package security

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// GenerateFamilyCode returns the join token handed out when a family is
// created. Collisions are caught by the unique constraint on family_code.
func GenerateFamilyCode() string {
	return uuid.New().String()
}

// GenerateVerificationCode returns a 6-digit code sent by email to verify
// a new account.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// GenerateStateToken returns an opaque token for OAuth state round-trips.
func GenerateStateToken() string {
	return uuid.New().String()
}
