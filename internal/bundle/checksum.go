package bundle

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// hashFileSHA512 computes the SHA-512 hex digest of a file.
func hashFileSHA512(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	hasher := sha512.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash archive: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// manifestContains reports whether the checksum manifest lists the given
// digest. Manifests may carry several hashes, filenames, and arbitrary
// surrounding text, so the matching rule is substring containment, not
// exact equality. Matching is case-insensitive since tools disagree on
// hex digit casing.
func manifestContains(manifest []byte, digest string) bool {
	return strings.Contains(strings.ToLower(string(manifest)), strings.ToLower(digest))
}

// verifyManifestSignature checks a detached GPG signature over the
// checksum manifest against the given keyring. Armored signatures are
// tried first, then binary.
func verifyManifestSignature(keyring openpgp.EntityList, manifest, signature []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(
		keyring, bytes.NewReader(manifest), bytes.NewReader(signature), nil)
	if err == nil {
		return nil
	}

	_, err = openpgp.CheckDetachedSignature(
		keyring, bytes.NewReader(manifest), bytes.NewReader(signature), nil)
	if err != nil {
		return fmt.Errorf("verify manifest signature: %w", err)
	}

	return nil
}
