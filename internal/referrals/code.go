package referrals

import (
	"net/url"
	"strings"
)

const (
	DefaultCodePrefix = "WGME-"
	DefaultCodeLength = 6
	maxCodeBody       = 32
)

// DeriveCode builds a referral code from a user id: prefix followed by the
// first length characters of the id, dashes removed, uppercased. The same id
// always yields the same code.
func DeriveCode(prefix string, length int, userID string) string {
	body := strings.ToUpper(strings.ReplaceAll(userID, "-", ""))
	if length > 0 && length < len(body) {
		body = body[:length]
	}
	return prefix + body
}

// candidateCodes lists the codes to try for userID, shortest first. Longer
// candidates are only reached when a shorter one is already owned by someone else.
func candidateCodes(prefix string, length int, userID string) []string {
	if length <= 0 {
		length = DefaultCodeLength
	}
	var out []string
	seen := map[string]bool{}
	for n := length; ; n += 2 {
		code := DeriveCode(prefix, n, userID)
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
		if n >= maxCodeBody {
			return out
		}
	}
}

// NormalizeCode canonicalizes user input before lookup.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// BuildLink formats the signup link carrying code.
func BuildLink(origin, code string) string {
	return strings.TrimRight(origin, "/") + "/auth?ref=" + url.QueryEscape(code)
}
