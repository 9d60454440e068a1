package ws

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

// bearerToken extracts the raw credential from an Authorization header
// value. Returns "" when the header is not a bearer scheme.
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
