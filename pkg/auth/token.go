package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of a token when none is configured.
const DefaultTokenTTL = 1800 * time.Second

// Claims is the signed payload. The user id travels as the subject.
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens bound to one purpose, so a token
// minted for one flow is useless in another.
type Signer struct {
	secret  []byte
	purpose string
	ttl     time.Duration
	now     func() time.Time
}

// NewSigner returns a Signer. A non-positive ttl means DefaultTokenTTL.
func NewSigner(secret, purpose string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Signer{secret: []byte(secret), purpose: purpose, ttl: ttl, now: time.Now}
}

// Issue returns a token embedding userID.
func (s *Signer) Issue(userID uint) (string, error) {
	now := s.now()
	claims := Claims{
		Purpose: s.purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the embedded user id. Expired, tampered, malformed or
// foreign-purpose tokens yield (0, false).
func (s *Signer) Verify(token string) (uint, bool) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Purpose != s.purpose {
		return 0, false
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
