package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Domain prefix for content-addressed group identity.
// Version suffix enables future algorithm migration.
const DomainGroup = "eventnav/group/v1"

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GroupHash computes the group id for an event fingerprint within a project.
// Events with the same project and fingerprint always land in the same group.
func GroupHash(projectID int64, fingerprint []string) (string, error) {
	parts := make(IRArray, len(fingerprint))
	for i, p := range fingerprint {
		parts[i] = IRString(p)
	}
	obj := IRObject{
		"fingerprint": parts,
		"project_id":  IRInt(projectID),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("GroupHash: failed to marshal: %w", err)
	}
	// 32 hex chars keeps group ids the same width as event ids.
	return hashWithDomain(DomainGroup, canonical)[:32], nil
}

// MustGroupHash is like GroupHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustGroupHash(projectID int64, fingerprint []string) string {
	h, err := GroupHash(projectID, fingerprint)
	if err != nil {
		panic(err)
	}
	return h
}

// NewEventID returns a random event id: a UUIDv4 as 32 lowercase hex chars.
func NewEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
