package auth

import (
	"crypto/rand"
	"encoding/base64"
)

// mentorTokenBytes of entropy per mentor credential.
const mentorTokenBytes = 45

// NewMentorToken returns a URL-safe random capability token. Possession
// of the token is the sole authorization proof for ticket mutations.
func NewMentorToken() (string, error) {
	buf := make([]byte, mentorTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
