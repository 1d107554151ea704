package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCode    = "factory/code/v1"
	DomainAddress = "factory/address/v1"
	DomainExtra   = "factory/extra/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return h.Sum(nil)
}

// CodeHash computes the integrity hash of program code.
// The result is suitable for CodeRef.CodeHash.
func CodeHash(code []byte) string {
	return hex.EncodeToString(hashWithDomain(DomainCode, code))
}

// DeriveAddress computes a deterministic child address from the creator,
// the code id and a per-creator instance counter.
func DeriveAddress(creator Address, codeID uint64, n uint64) (Address, error) {
	obj := IRObject{
		"creator": IRString(creator),
		"code_id": IRInt(int64(codeID)),
		"n":       IRInt(int64(n)),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DeriveAddress: failed to marshal: %w", err)
	}
	sum := hashWithDomain(DomainAddress, canonical)
	return Address("inst1" + hex.EncodeToString(sum[:20])), nil
}

// ExtraDigest computes a content hash of extra data.
// Two payloads that differ only in key order or Unicode normalization
// produce the same digest.
func ExtraDigest(extra IRObject) (string, error) {
	canonical, err := MarshalCanonical(extra)
	if err != nil {
		return "", fmt.Errorf("ExtraDigest: failed to marshal: %w", err)
	}
	return hex.EncodeToString(hashWithDomain(DomainExtra, canonical)), nil
}
