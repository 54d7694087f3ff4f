package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

var (
	// ErrTokenMissing is returned when no bearer token was supplied.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenInvalid is returned for malformed, expired or wrongly signed tokens.
	ErrTokenInvalid = errors.New("token invalid")
)

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// TokenClaims is the identity carried by an access token.
type TokenClaims struct {
	UserID uint
	Role   string
}

// TokenParser resolves a raw token into its claims.
type TokenParser func(token string) (TokenClaims, error)

// NewTokenParser returns a parser for HMAC signed tokens.
func NewTokenParser(secret string) TokenParser {
	return func(tokenString string) (TokenClaims, error) {
		return ParseToken(secret, tokenString)
	}
}

// ParseToken validates an HMAC signed, expiring token issued by the alumni
// platform and extracts the user id and role. The user id is read from sub,
// user_id or id; the role from role or the first entry of roles.
func ParseToken(secret, tokenString string) (TokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return TokenClaims{}, ErrTokenMissing
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods(hmacMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return TokenClaims{}, ErrTokenInvalid
	}

	userID, ok := userIDClaim(claims)
	if !ok {
		return TokenClaims{}, ErrTokenInvalid
	}
	return TokenClaims{UserID: userID, Role: roleClaim(claims)}, nil
}

// TokenFromRequest reads a bearer token from the Authorization header or, for
// browser websocket and EventSource clients, the token query parameter.
func TokenFromRequest(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "bearer "
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		return strings.TrimSpace(authorization[len(bearer):])
	}
	return strings.TrimSpace(c.Query("token"))
}

// JWTProtected authenticates the request and stores user_id and user_role locals.
func JWTProtected(secret string) fiber.Handler {
	parse := NewTokenParser(secret)

	return func(c *fiber.Ctx) error {
		claims, err := parse(TokenFromRequest(c))
		switch {
		case errors.Is(err, ErrTokenMissing):
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		case err != nil:
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", claims.UserID)
		if claims.Role != "" {
			c.Locals("user_role", claims.Role)
		}
		return c.Next()
	}
}

func userIDClaim(claims jwt.MapClaims) (uint, bool) {
	for _, key := range []string{"sub", "user_id", "id"} {
		var parsed uint64
		switch v := claims[key].(type) {
		case float64:
			if v < 1 || v != float64(uint64(v)) {
				continue
			}
			parsed = uint64(v)
		case string:
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil || n == 0 {
				continue
			}
			parsed = n
		default:
			continue
		}
		return uint(parsed), true
	}
	return 0, false
}

func roleClaim(claims jwt.MapClaims) string {
	if role, ok := claims["role"].(string); ok && strings.TrimSpace(role) != "" {
		return strings.ToLower(strings.TrimSpace(role))
	}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, item := range roles {
			if role, ok := item.(string); ok && strings.TrimSpace(role) != "" {
				return strings.ToLower(strings.TrimSpace(role))
			}
		}
	}
	return ""
}
