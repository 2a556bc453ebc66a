package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether plain matches hash. Any bcrypt failure, including
// a malformed hash, counts as a mismatch.
func (h *Hasher) Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ResetChallenge is a password reset token. Plain goes to the user once;
// only Digest and Expires are stored.
type ResetChallenge struct {
	Plain   string
	Digest  string
	Expires time.Time
}

const resetTokenBytes = 20

// NewResetChallenge generates a random reset token valid for ttl.
func NewResetChallenge(now time.Time, ttl time.Duration) (ResetChallenge, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return ResetChallenge{}, fmt.Errorf("generate reset token: %w", err)
	}

	plain := hex.EncodeToString(b)
	return ResetChallenge{
		Plain:   plain,
		Digest:  DigestResetToken(plain),
		Expires: now.Add(ttl),
	}, nil
}

// DigestResetToken is the one-way form of a reset token kept in storage.
func DigestResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

var ErrResetTokenInvalid = errors.New("reset token invalid or expired")
