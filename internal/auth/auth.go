package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SeatClaims identifies the holder of a seat in a match.
type SeatClaims struct {
	MatchID string
	Seat    int
}

// IssueSeatToken signs an HS256 token granting the bearer the given seat.
func IssueSeatToken(secret, matchID string, seat int, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	claims := jwt.MapClaims{
		"match_id": matchID,
		"seat":     seat,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign seat token: %w", err)
	}
	return signed, nil
}

// ParseSeatToken validates a seat token and returns its claims.
func ParseSeatToken(secret, token string) (SeatClaims, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return SeatClaims{}, ErrTokenExpired
		}
		return SeatClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return SeatClaims{}, ErrInvalidToken
	}
	matchID, ok := claims["match_id"].(string)
	if !ok || matchID == "" {
		return SeatClaims{}, ErrInvalidToken
	}
	seatf, ok := claims["seat"].(float64)
	if !ok || (seatf != 0 && seatf != 1) {
		return SeatClaims{}, ErrInvalidToken
	}
	return SeatClaims{MatchID: matchID, Seat: int(seatf)}, nil
}

// HashPassword hashes a private match password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
