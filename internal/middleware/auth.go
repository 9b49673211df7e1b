// Package middleware provides authentication, logging, rate limiting, and
// telemetry middleware for the HTTP API.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"storyloom/internal/config"
	"storyloom/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// Token rejection reasons returned by ParseUserToken.
var (
	ErrTokenInvalid = errors.New("invalid or expired token")
	ErrTokenSubject = errors.New("token subject is not a user id")
)

var hmacMethods = []string{"HS256", "HS384", "HS512"}

// ParseUserToken validates an HMAC-signed access token issued by the identity
// provider and returns the user id carried in its subject. A non-empty issuer
// must match the iss claim.
func ParseUserToken(raw, secret, issuer string) (uint, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(hmacMethods), jwt.WithExpirationRequired()}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return 0, ErrTokenInvalid
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrTokenSubject
	}
	return uint(id), nil
}

// bearerToken extracts the credential from an "Authorization: Bearer" value.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != "" && !strings.Contains(token, " ")
}

// AuthRequired rejects requests without a valid bearer token and exposes the
// caller's id as the "userID" local and on the user context.
func AuthRequired(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization header required"))
	}
	raw, ok := bearerToken(header)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid authorization header format"))
	}

	userID, err := ParseUserToken(raw, cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
	return c.Next()
}
