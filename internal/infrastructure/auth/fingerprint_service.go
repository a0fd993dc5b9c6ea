package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/you/paywallsvc/domain"
)

// FingerprintServiceImpl implements domain.FingerprintService. It derives a
// stable opaque identifier from client-supplied device signals. The derived
// value is non-cryptographic identity: it detects credential sharing, it
// does not authenticate anyone.
type FingerprintServiceImpl struct{}

// NewFingerprintService creates a new fingerprint codec
func NewFingerprintService() domain.FingerprintService {
	return &FingerprintServiceImpl{}
}

// Derive implements domain.FingerprintService. Signals are canonicalized
// by sorted key so that clients sending the same signals in a different
// order produce the same fingerprint.
func (f *FingerprintServiceImpl) Derive(signals map[string]string) string {
	if len(signals) == 0 {
		return ""
	}

	keys := make([]string, 0, len(signals))
	for k := range signals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(signals[k]))
		b.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Normalize implements domain.FingerprintService. Clients that compute the
// fingerprint themselves send it as an opaque string; it is lowercased and
// trimmed so lookups are stable.
func (f *FingerprintServiceImpl) Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
