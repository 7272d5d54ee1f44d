// Package token implements the compact signed bearer tokens used by the
// Vendaria API. Tokens look like JWTs (three dot-separated segments, HS256
// signature) but every segment uses the standard base64 alphabet rather than
// the URL-safe one, so off-the-shelf JWT libraries will not interoperate.
// The format is kept for wire compatibility with existing storefront clients.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalid is returned by Verify for every rejected token: wrong segment
// count, bad signature, expired, or undecodable payload. Callers map it to a
// 401 without distinguishing the cause.
var ErrInvalid = errors.New("invalid token")

// Claims is the payload embedded in a token. It is a snapshot of the user
// record at issuance time, not a live link to it.
type Claims struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Profile string `json:"profile"`

	// Exp is the expiry as epoch seconds. Zero means the token carries no
	// expiry and never expires as encoded; clients impose their own rolling
	// timeout on top.
	Exp int64 `json:"exp,omitempty"`
}

// header is the fixed token header. Field order matters for the encoded form.
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Codec signs and verifies tokens with a shared HMAC-SHA-256 secret.
type Codec struct {
	secret []byte

	// now is the clock used for expiry checks, overridable in tests.
	now func() time.Time
}

// NewCodec creates a codec for the given shared secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Sign encodes the claims into a signed three-segment token.
func (c *Codec) Sign(claims Claims) (string, error) {
	headerJSON, err := json.Marshal(header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	encHeader := base64.StdEncoding.EncodeToString(headerJSON)
	encPayload := base64.StdEncoding.EncodeToString(payloadJSON)
	sig := c.signature(encHeader + "." + encPayload)

	return encHeader + "." + encPayload + "." + sig, nil
}

// Verify checks a token's structure, signature, and expiry, returning the
// embedded claims. Every failure mode returns ErrInvalid; Verify never
// panics on malformed input.
func (c *Codec) Verify(tok string) (Claims, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalid
	}

	// The signature is recomputed over the received segments as-is, so a
	// tampered header or payload fails here before any decoding happens.
	expected := c.signature(parts[0] + "." + parts[1])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return Claims{}, ErrInvalid
	}

	payloadJSON, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalid
	}

	var claims Claims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return Claims{}, ErrInvalid
	}

	if claims.Exp != 0 && claims.Exp < c.now().Unix() {
		return Claims{}, ErrInvalid
	}

	return claims, nil
}

// signature computes base64Std(HMAC-SHA-256(secret, data)).
func (c *Codec) signature(data string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
