package auth

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strings"
)

// emptyQuoted is the serialized form some upstream systems use for an
// absent body: a literal quoted empty string.
const emptyQuoted = `""`

// Digest computes the SHA-512 content digest of payload, encoded with
// standard padded base64.
//
// Leading and trailing whitespace is insignificant. An empty payload and
// the two-character literal `""` both digest as zero bytes.
func Digest(payload string) string {
	normalized := strings.TrimSpace(payload)
	if normalized == emptyQuoted {
		normalized = ""
	}

	sum := sha512.Sum512([]byte(normalized))

	return base64.StdEncoding.EncodeToString(sum[:])
}

// DigestHeaderValue formats the content digest of payload for the
// Content-Digest header: sha-512=:<base64>:.
func DigestHeaderValue(payload string) string {
	return fmt.Sprintf("sha-512=:%s:", Digest(payload))
}
