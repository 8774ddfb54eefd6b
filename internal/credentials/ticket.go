package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidTicket = errors.New("invalid player ticket")
	ErrNoTicketKey   = errors.New("ticket secret is not configured")
)

// TicketClaims binds a player id to a room
type TicketClaims struct {
	RoomCode string `json:"room"`
	jwt.RegisteredClaims
}

// TicketIssuer signs and verifies player tickets. Tickets are handed out on join and
// presented when subscribing to a room's event stream.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTicketIssuer creates an issuer. An empty secret disables tickets.
func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether a signing secret is configured
func (t *TicketIssuer) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// Issue returns a signed ticket for playerID in roomCode
func (t *TicketIssuer) Issue(roomCode, playerID string) (string, error) {
	if !t.Enabled() {
		return "", ErrNoTicketKey
	}

	now := t.now()
	claims := TicketClaims{
		RoomCode: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return signed, nil
}

// Parse verifies a ticket and returns its room code and player id
func (t *TicketIssuer) Parse(ticket string) (roomCode, playerID string, err error) {
	if !t.Enabled() {
		return "", "", ErrNoTicketKey
	}

	claims := &TicketClaims{}
	_, err = jwt.ParseWithClaims(ticket, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if claims.Subject == "" || claims.RoomCode == "" {
		return "", "", ErrInvalidTicket
	}
	return claims.RoomCode, claims.Subject, nil
}
