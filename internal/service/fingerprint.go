package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
)

// Fingerprinter derives opaque, privacy-preserving client tokens used only
// for duplicate suppression. The token carries no identity; it is compared
// for equality and nothing else.
type Fingerprinter struct {
	salt string
}

func NewFingerprinter(salt string) *Fingerprinter {
	return &Fingerprinter{salt: salt}
}

// Hash computes the fingerprint from request characteristics. Computed
// server-side so clients cannot spoof someone else's token.
func (f *Fingerprinter) Hash(remoteAddr, userAgent string) string {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}

	sum := sha256.Sum256([]byte(strings.Join([]string{host, userAgent, f.salt}, "|")))
	return hex.EncodeToString(sum[:16])
}
