package store

import (
	"net/url"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// SanitizeKey percent-encodes every character of name that is unsafe for an
// object key. Existing %XX triplets are preserved, which makes the function
// idempotent: SanitizeKey(SanitizeKey(x)) == SanitizeKey(x).
func SanitizeKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '%' && i+2 < len(name) && ishex(name[i+1]) && ishex(name[i+2]):
			b.WriteByte(c)
		case safeKeyByte(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}

	return b.String()
}

// DisplayKey reverses the percent-encoding of a sanitized key for display.
// Keys that do not decode cleanly are returned unchanged.
func DisplayKey(key string) string {
	decoded, err := url.PathUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}

func safeKeyByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.'
}

func ishex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
