package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for derived identifiers. The version suffix allows the
// derivation to change without colliding with old values.
const (
	DomainRecovery = "rewards/recovery/v1"
	DomainMediaKey = "rewards/media/v1"
	DomainSeed     = "rewards/seed/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
