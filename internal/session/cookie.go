// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/samber/oops"
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// ErrBadToken is returned when a cookie value fails to decode or its
// signature does not verify.
var ErrBadToken = oops.Code("SESSION_TOKEN_INVALID").Errorf("invalid session token")

// Codec signs session identifiers for transport in a cookie. The
// cookie value is "<id>.<hex signature>"; the id itself stays opaque
// and the signature stops clients from minting their own.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec from the configured signing secret.
func NewCodec(secret string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, oops.Code("SESSION_SECRET_TOO_SHORT").
			With("min_length", MinSecretLength).
			Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Encode produces the signed cookie value for a session id.
func (c *Codec) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode verifies a cookie value and returns the session id. The
// signature comparison is constant-time.
func (c *Codec) Decode(value string) (string, error) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" || sig == "" {
		return "", ErrBadToken
	}
	if !hmac.Equal([]byte(c.sign(id)), []byte(sig)) {
		return "", ErrBadToken
	}
	return id, nil
}

func (c *Codec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}
