package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"faceclock/pkg/logger"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("missing token")
)

// SessionClaims binds a token to a rotating session identifier. The sid is
// what the session store is keyed by; person_id and role only spare a
// lookup on the hot path.
type SessionClaims struct {
	SessionID string `json:"sid"`
	PersonID  string `json:"person_id"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type PersonContext struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Name      string
	Role      string
}

// GenerateSessionToken signs an HS256 token for the given session.
func GenerateSessionToken(sessionID, personID uuid.UUID, name, role, jwtSecret string, issuedAt, expiresAt time.Time) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID.String(),
		PersonID:  personID.String(),
		Name:      name,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateSessionToken checks signature and expiry and returns the embedded
// principal. It does not consult the session store; a token that passes
// here may still belong to a revoked session.
func ValidateSessionToken(tokenString, jwtSecret string) (*PersonContext, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	// Remove "Bearer " prefix if present
	if strings.HasPrefix(tokenString, "Bearer ") {
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	personID, err := uuid.Parse(claims.PersonID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &PersonContext{
		ID:        personID,
		SessionID: sessionID,
		Name:      claims.Name,
		Role:      claims.Role,
	}, nil
}

func ExtractTokenFromHeader(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

func GetPersonFromContext(c *fiber.Ctx) (*PersonContext, error) {
	person := c.Locals("person")

	if person == nil {
		logger.Warn(logger.CategoryAuth, "get_person_context", "Person not found in context", nil)
		return nil, errors.New("person not found in context")
	}

	personCtx, ok := person.(*PersonContext)
	if !ok {
		logger.Warn(logger.CategoryAuth, "get_person_context", "Invalid person context type", map[string]interface{}{"type": logger.GetTypeName(person)})
		return nil, errors.New("invalid person context type")
	}

	return personCtx, nil
}
