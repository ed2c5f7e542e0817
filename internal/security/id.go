package security

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
)

// RandomID returns length characters drawn from length random bytes, base64
// encoded with / and + replaced so the result is safe in paths and URLs.
func RandomID(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	id := base64.StdEncoding.EncodeToString(buf)[:length]
	return strings.NewReplacer("/", "-", "+", "_").Replace(id), nil
}
