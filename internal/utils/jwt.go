package utils // package utils provides token issuing, verification and hashing helpers

import (
	"crypto/sha256" // SHA-256 hashing for the refresh-token revocation set
	"encoding/hex"  // hex encoding of digests
	"errors"        // sentinel errors for verification failures
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned when a token fails signature or expiry
// verification, or carries no usable subject claim.
var ErrInvalidToken = errors.New("invalid token")

// SignedToken carries a serialized JWT together with its expiry.
// Access tokens are short-lived and sent in the Authorization header;
// refresh tokens live longer and are signed with a separate secret so
// one cannot stand in for the other.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken signs an HS256 JWT binding the user id for ttlMin minutes.
func NewAccessToken(secret, userID string, ttlMin int) (SignedToken, error) {
	return newToken(secret, userID, time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken signs an HS256 JWT binding the user id for ttlDays days.
// The refresh secret must differ from the access secret.
func NewRefreshToken(secret, userID string, ttlDays int) (SignedToken, error) {
	return newToken(secret, userID, time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret, userID string, ttl time.Duration) (SignedToken, error) {
	exp := time.Now().UTC().Add(ttl)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// VerifyToken parses a signed token, checks the HMAC signature and
// expiry, and returns the subject claim.  All failure causes collapse
// into ErrInvalidToken.
func VerifyToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.
// The revocation set stores only hashes, so a leaked set cannot be
// replayed as live tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
