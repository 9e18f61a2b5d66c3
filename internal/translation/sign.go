package translation

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"unicode/utf16"
)

// Truncate returns the signing input for q as the provider defines it:
// q itself up to 20 characters, otherwise the first 10 characters, the
// character count and the last 10 characters. Characters are UTF-16 code
// units, as the provider counts them.
func Truncate(q string) string {
	u := utf16.Encode([]rune(q))
	if len(u) <= 20 {
		return q
	}
	return string(utf16.Decode(u[:10])) + strconv.Itoa(len(u)) + string(utf16.Decode(u[len(u)-10:]))
}

// Sign computes the v3 request signature:
// hex(sha256(appKey + Truncate(q) + salt + curtime + appSecret)).
func Sign(appKey, q, salt, curtime, appSecret string) string {
	sum := sha256.Sum256([]byte(appKey + Truncate(q) + salt + curtime + appSecret))
	return hex.EncodeToString(sum[:])
}
