// Package id mints the short identifiers driftwatch stamps on its runs.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// prefixSession marks ids that name one driftwatch invocation.
const prefixSession = "ses"

// NewSession mints a session identifier, e.g. "ses-hC6xuZjMFmiOSxNIUDB1a".
// The session id tags every rendered event of one invocation so output
// from overlapping runs can be told apart.
//
// The random part is a 21-character NanoID: URL-safe and denser per
// character than a UUID. An error means the system could not supply
// secure randomness.
func NewSession() (string, error) {
	return mint(prefixSession)
}

// MustNewSession is NewSession for startup paths where missing entropy
// should abort the program.
func MustNewSession() string {
	sid, err := NewSession()
	if err != nil {
		panic(fmt.Errorf("id: %w", err))
	}
	return sid
}

func mint(prefix string) (string, error) {
	suffix, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("mint %s id: %w", prefix, err)
	}
	return prefix + "-" + suffix, nil
}
