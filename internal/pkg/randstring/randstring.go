package randstring

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

// Alphanumeric ids and tokens. Room ids, member ids, secret tokens and
// message ids all share this alphabet; only their lengths differ.
const (
	MessageIDLength = 32
	RoomIDLength    = 64
	MemberIDLength  = 128
	TokenLength     = 128
)

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var alnumPattern = regexp.MustCompile("^[a-zA-Z0-9]+$")

// New returns a random alphanumeric string of the given length.
func New(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the platform source is broken
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf)
}

// NewMessageID returns a fresh 32-char message id.
func NewMessageID() string { return New(MessageIDLength) }

// NewRoomID returns a fresh 64-char room id.
func NewRoomID() string { return New(RoomIDLength) }

// NewToken returns a fresh 128-char member secret token.
func NewToken() string { return New(TokenLength) }

// IsValid reports whether s is alphanumeric and exactly length chars long.
func IsValid(s string, length int) bool {
	return len(s) == length && alnumPattern.MatchString(s)
}
