// Package docid provides deterministic document and chunk IDs derived from a source URL.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const prefix = "url:"

// DocumentID returns a stable document ID for the given source URL.
// The scheme and host are case-insensitive, so they are lowercased before hashing.
func DocumentID(sourceURL string) string {
	normalized := strings.TrimSpace(sourceURL)
	if u, err := url.Parse(normalized); err == nil && u.Host != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = strings.ToLower(u.Host)
		normalized = u.String()
	}
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// ChunkID returns the ID of the chunk at position within docID.
// IDs sort in document order for positions below one million.
func ChunkID(docID string, position int) string {
	short := strings.TrimPrefix(docID, prefix)
	if len(short) > 16 {
		short = short[:16]
	}
	return fmt.Sprintf("%s-%06d", short, position)
}
