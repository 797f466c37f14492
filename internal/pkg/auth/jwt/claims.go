package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the claims carried by a session token.
// Tokens are issued by the account service; this server only verifies them.
type Payload struct {
	jwt.StandardClaims

	// ID is the durable user id the session belongs to.
	ID string `json:"id"`

	// Nickname is the display name at issuance time. The authenticator prefers the
	// stored profile, so a stale nickname here is harmless.
	Nickname string `json:"nickname,omitempty"`
}
