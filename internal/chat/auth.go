package chat

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
	"strconv"
	"time"
)

const (
	// A hash may not be older than 60 seconds. Future-dated timestamps
	// are tolerated up to a small clock-skew allowance and rejected
	// beyond that.
	maxHashAge  = 60 * time.Second
	maxHashSkew = 5 * time.Second
)

// VerifyHash checks an auth proof: hex(sha256(secretToken + decimal
// millisecond timestamp)). The timestamp is the one the client hashed;
// stale or far-future proofs fail regardless of the digest.
func VerifyHash(token, hash string, timeMillis int64, now time.Time) bool {
	age := now.UnixMilli() - timeMillis
	if age > maxHashAge.Milliseconds() {
		return false
	}
	if age < -maxHashSkew.Milliseconds() {
		return false
	}

	sum := sha256.Sum256([]byte(token + strconv.FormatInt(timeMillis, 10)))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) == 1
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+`)

// ExtractEmails returns the e-mail-looking substrings of text, first
// occurrence order, duplicates removed.
func ExtractEmails(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	emails := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		emails = append(emails, m)
	}
	return emails
}
