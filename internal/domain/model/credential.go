package model

import (
	"errors"
	"strings"
	"time"
)

// credentialDelimiter separates region from token in the cached composite value.
const credentialDelimiter = ":"

// ErrMalformedCredentialValue is returned by ParseCredentialValue when the
// composite value has no delimiter or an empty part.
var ErrMalformedCredentialValue = errors.New("malformed credential value")

// Credential is a short-lived authorization token for the speech service.
// It is valid strictly before ExpiresAt.
type Credential struct {
	Token     string
	Region    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the credential can still be used at now.
func (c Credential) ValidAt(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}

// FormatCredentialValue encodes region and token as the composite cache value
// "<region>:<token>".
func FormatCredentialValue(region, token string) string {
	return region + credentialDelimiter + token
}

// ParseCredentialValue splits a composite cache value at the first delimiter
// only. Tokens may themselves contain colons.
func ParseCredentialValue(value string) (region, token string, err error) {
	region, token, ok := strings.Cut(value, credentialDelimiter)
	if !ok || region == "" || token == "" {
		return "", "", ErrMalformedCredentialValue
	}
	return region, token, nil
}
