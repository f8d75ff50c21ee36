package source

import (
	"encoding/hex"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex digest of content, used to detect whether a
// file actually changed between watcher events.
func Fingerprint(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FingerprintFile fingerprints a file on disk. Returns an empty string
// when the file cannot be read; a missing file and an unreadable file
// both look like "no content" to change detection.
func FingerprintFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return Fingerprint(content)
}
