package auth

import (
	"errors"
	"happy-game/internal/config"
	"happy-game/internal/constants"
	"time"

	"github.com/golang-jwt/jwt/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

type cookieClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs visitor session ids into the hg_session cookie value.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCookieCodec(cfg *config.Config) *CookieCodec {
	return &CookieCodec{
		secret: []byte(cfg.SessionSecret),
		ttl:    constants.SessionCookieTTL,
		now:    time.Now,
	}
}

func NewSID() (string, error) {
	return gonanoid.New()
}

func (c *CookieCodec) Encode(sid string) (string, error) {
	now := c.now()
	claims := cookieClaims{
		SID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *CookieCodec) Decode(value string) (string, error) {
	claims := &cookieClaims{}
	tok, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidCookie
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid || claims.SID == "" {
		return "", ErrInvalidCookie
	}
	return claims.SID, nil
}

func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}
