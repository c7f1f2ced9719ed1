package logging

import "strings"

// RedactEmail keeps the first rune of the local part and the domain:
// "alice@example.com" becomes "a***@example.com". Input without an "@"
// is fully masked.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return "***"
	}
	r := []rune(local)
	return string(r[0]) + "***@" + domain
}
