// Package auth implements token issuance/validation and the ownership
// authorization rule.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes short-lived access tokens from the longer-lived
// refresh tokens used to mint new access tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	tokenIssuer   = "thoughtstream-api"
	tokenAudience = "thoughtstream-client"
)

// Validation failure reasons. ErrExpired must stay distinguishable from the
// other reasons so callers can tell clients to refresh instead of
// re-authenticating.
var (
	ErrMalformed      = errors.New("token is malformed or has an invalid signature")
	ErrExpired        = errors.New("token has expired")
	ErrMissingSubject = errors.New("token does not carry a valid subject")
	ErrWrongKind      = errors.New("token kind does not match the expected kind")
)

// Codec issues and validates signed, expiring tokens carrying a subject ID.
// The signing secret and lifetimes are injected at construction so tests can
// substitute deterministic values; the clock is injectable for the same
// reason. A Codec has no side effects beyond cryptographic computation.
type Codec struct {
	secret      []byte
	accessTTL   time.Duration
	extendedTTL time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

// NewCodec returns a Codec signing with the given secret.
func NewCodec(secret string, accessTTL, extendedTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		extendedTTL: extendedTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

// Issue creates a signed token for the given subject. For access tokens,
// extended selects the "remember me" lifetime instead of the default one;
// refresh tokens always use the refresh lifetime.
func (c *Codec) Issue(subjectID uint, kind Kind, extended bool) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("signing secret not configured")
	}

	var lifetime time.Duration
	switch kind {
	case KindAccess:
		lifetime = c.accessTTL
		if extended {
			lifetime = c.extendedTTL
		}
	case KindRefresh:
		lifetime = c.refreshTTL
	default:
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(subjectID), 10), // Subject (user ID as string)
		"kind": string(kind),
		"iss":  tokenIssuer,
		"aud":  tokenAudience,
		"exp":  now.Add(lifetime).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  generateJTI(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Validate verifies the signature and expiry of the given token string and
// extracts its subject ID. The failure reasons are ErrExpired (signature
// valid, past expiry), ErrMalformed (anything unparseable or forged),
// ErrMissingSubject and ErrWrongKind.
func (c *Codec) Validate(tokenString string, want Kind) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrMalformed
	}
	if !token.Valid {
		return 0, ErrMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrMalformed
	}

	// Validate issuer and audience
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return 0, ErrMalformed
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return 0, ErrMalformed
	}

	if kind, kindOk := claims["kind"].(string); !kindOk || Kind(kind) != want {
		return 0, ErrWrongKind
	}

	// Extract user ID from "sub" claim (subject claim per RFC 7519)
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return 0, ErrMissingSubject
	}
	subjectID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || subjectID == 0 {
		return 0, ErrMissingSubject
	}

	return uint(subjectID), nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}
