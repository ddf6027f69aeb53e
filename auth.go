package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTicketInvalid is returned for any ticket that does not verify
var ErrTicketInvalid = errors.New("invalid ticket")

// TicketClaims binds a connection to a player slot in a session
type TicketClaims struct {
	SessionID string `json:"sid"`
	PlayerID  int    `json:"pid"`
	jwt.RegisteredClaims
}

// TicketIssuer signs and verifies resume tickets
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTicketIssuer creates an HS256 issuer
func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a ticket for player pid in session sid
func (t *TicketIssuer) Issue(sid string, pid int) (string, error) {
	now := t.now()
	claims := TicketClaims{
		SessionID: sid,
		PlayerID:  pid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return s, nil
}

// Parse verifies a ticket and returns its claims
func (t *TicketIssuer) Parse(ticket string) (*TicketClaims, error) {
	var claims TicketClaims
	token, err := jwt.ParseWithClaims(ticket, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTicketInvalid, err)
	}
	if !token.Valid || claims.SessionID == "" || claims.PlayerID <= 0 {
		return nil, ErrTicketInvalid
	}
	return &claims, nil
}
