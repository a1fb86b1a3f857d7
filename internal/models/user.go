package models

import "time"

// User is an identity record owned by the auth layer. The ledger core
// references users but never mutates them.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	IsVerified       bool      `json:"isVerified"`
	VerificationCode string    `json:"-"`
	OAuthProvider    string    `json:"-"`
	OAuthSubject     string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
