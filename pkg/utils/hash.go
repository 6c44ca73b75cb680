package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

// ContentHash returns the hex SHA-256 of a document's text as recorded in the
// manifest's content_hash field. Callers pass text whose line endings are
// already "\n".
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// FileContentHash reads a source document and hashes it the way the loader
// sees it: CRLF and lone CR endings are folded to "\n" first, so re-saving a
// file with different line endings does not change its hash. For a file
// loaded without front-matter stripping the result equals its manifest
// content_hash.
func FileContentHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if strings.Contains(text, "\r") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return ContentHash(text), nil
}
