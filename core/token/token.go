package token

import (
	"crypto/sha256"
	"time"
)

const (
	ScopeActivation = "activation"
	ScopeRecovery   = "recovery"
)

// Token is stored hashed: leaking the tokens table must not leak
// usable secrets.
type Token struct {
	Hash   []byte    `db:"token_hash"`
	UserID string    `db:"user_id"`
	Scope  string    `db:"scope"`
	Expiry time.Time `db:"expiry"`
}

func Hash(plaintext string) []byte {
	h := sha256.Sum256([]byte(plaintext))
	return h[:]
}

// Mailer delivers the user-facing notifications tied to tokens and
// account lifecycle. Sending is fire-and-forget from the caller's
// perspective.
type Mailer interface {
	SendWelcome(to string, name string) error
	SendActivation(to string, token string) error
	SendRecovery(to string, token string) error
}
