package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Tokens signs and verifies HS256 bearer tokens.
type Tokens struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

func NewTokens(secret, issuer string) *Tokens {
	return &Tokens{secret: []byte(secret), issuer: issuer, leeway: 30 * time.Second, now: time.Now}
}

// Issue signs a token for id valid for ttl.
func (t *Tokens) Issue(id Identity, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: id.Email,
		Roles: id.Roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Parse verifies a token and returns the identity it carries. Time-based claims are checked
// with the configured leeway.
func (t *Tokens) Parse(raw string) (Identity, error) {
	claims := &Claims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	_, err := parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Identity{}, errors.Wrap(err, "parse token")
	}
	if err := t.validate(claims); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.Subject, Email: claims.Email, Roles: claims.Roles}, nil
}

func (t *Tokens) validate(claims *Claims) error {
	now := t.now()
	if !claims.VerifyExpiresAt(now.Add(-t.leeway), true) {
		return errors.Wrap(jwt.ErrTokenExpired, "validate token")
	}
	if !claims.VerifyNotBefore(now.Add(t.leeway), false) {
		return errors.Wrap(jwt.ErrTokenNotValidYet, "validate token")
	}
	if !claims.VerifyIssuedAt(now.Add(t.leeway), false) {
		return errors.Wrap(jwt.ErrTokenUsedBeforeIssued, "validate token")
	}
	if t.issuer != "" && !claims.VerifyIssuer(t.issuer, true) {
		return errors.Wrap(jwt.ErrTokenInvalidIssuer, "validate token")
	}
	if claims.Subject == "" {
		return errors.Wrap(jwt.ErrTokenInvalidClaims, "token has no subject")
	}
	return nil
}
