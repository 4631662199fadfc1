// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Digest is the BLAKE3-256 hash of a script's content.
type Digest [32]byte

// String returns the full hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 12 hex characters, enough to tell scripts
// apart in logs and the status panel.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:6])
}

// ParseDigest parses a 64-character hex string into a Digest.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing script digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("script digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}

// hashReader streams reader through BLAKE3 and returns the digest and
// the number of bytes read.
func hashReader(reader io.Reader) (Digest, int64, error) {
	hasher := blake3.New()
	size, err := io.Copy(hasher, reader)
	if err != nil {
		return Digest{}, size, err
	}
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, size, nil
}
