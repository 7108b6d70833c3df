package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func hashFor(token string, timeMillis int64) string {
	sum := sha256.Sum256([]byte(token + strconv.FormatInt(timeMillis, 10)))
	return hex.EncodeToString(sum[:])
}

func TestVerifyHash(t *testing.T) {
	const token = "secretsecretsecret"
	now := time.Now()

	tests := []struct {
		name       string
		timeMillis int64
		hash       func(int64) string
		want       bool
	}{
		{
			name:       "fresh proof",
			timeMillis: now.UnixMilli(),
			hash:       func(ts int64) string { return hashFor(token, ts) },
			want:       true,
		},
		{
			name:       "just inside the window",
			timeMillis: now.Add(-59 * time.Second).UnixMilli(),
			hash:       func(ts int64) string { return hashFor(token, ts) },
			want:       true,
		},
		{
			name:       "expired",
			timeMillis: now.Add(-61 * time.Second).UnixMilli(),
			hash:       func(ts int64) string { return hashFor(token, ts) },
			want:       false,
		},
		{
			name:       "small clock skew tolerated",
			timeMillis: now.Add(3 * time.Second).UnixMilli(),
			hash:       func(ts int64) string { return hashFor(token, ts) },
			want:       true,
		},
		{
			name:       "far future rejected",
			timeMillis: now.Add(30 * time.Second).UnixMilli(),
			hash:       func(ts int64) string { return hashFor(token, ts) },
			want:       false,
		},
		{
			name:       "wrong token",
			timeMillis: now.UnixMilli(),
			hash:       func(ts int64) string { return hashFor("othertoken", ts) },
			want:       false,
		},
		{
			name:       "timestamp mismatch",
			timeMillis: now.UnixMilli(),
			hash:       func(ts int64) string { return hashFor(token, ts-1) },
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VerifyHash(token, tt.hash(tt.timeMillis), tt.timeMillis, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractEmails(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "none", text: "plain text", want: nil},
		{name: "single", text: "ping bob@example.com please", want: []string{"bob@example.com"}},
		{
			name: "multiple preserve order",
			text: "cc carol@test.org and bob@example.com",
			want: []string{"carol@test.org", "bob@example.com"},
		},
		{
			name: "duplicates removed",
			text: "bob@example.com again bob@example.com",
			want: []string{"bob@example.com"},
		},
		{name: "not an address", text: "meet @noon", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEmails(tt.text))
		})
	}
}
