package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/you/paywallsvc/domain"
)

// CodeHasherImpl implements domain.CodeHasher. Verification codes are short
// and numeric, so they are never stored in plaintext: a Redis dump must not
// hand an attacker every in-flight code.
type CodeHasherImpl struct {
	cost int
}

// NewCodeHasher creates a new bcrypt-backed code hasher
func NewCodeHasher() domain.CodeHasher {
	return &CodeHasherImpl{
		cost: bcrypt.DefaultCost,
	}
}

// Hash implements domain.CodeHasher
func (h *CodeHasherImpl) Hash(code string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify implements domain.CodeHasher
func (h *CodeHasherImpl) Verify(hashedCode, code string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedCode), []byte(code))
	return err == nil
}
