package httpapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// JWTConfig configures bearer-token validation for every route not listed
// in SkipPaths.
type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	Issuer     string
	SkipPaths  []string
}

// Claims is the token payload: a single operator identity, no per-role
// scoping — the command surface is uniform, unlike a flow editor's
// per-resource permissions.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (c JWTConfig) withDefaults() JWTConfig {
	if c.Expiration == 0 {
		c.Expiration = 24 * time.Hour
	}
	if c.Issuer == "" {
		c.Issuer = "freyr"
	}
	if c.SecretKey == "" {
		c.SecretKey = "freyr-dev-secret-change-in-production"
	}
	return c
}

// JWTMiddleware rejects requests without a valid bearer token, except for
// paths under SkipPaths (login, health).
func JWTMiddleware(cfg JWTConfig) fiber.Handler {
	cfg = cfg.withDefaults()
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		authHeader := c.Get("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed authorization header"})
		}

		claims, err := ParseToken(tokenString, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals("username", claims.Username)
		return c.Next()
	}
}

// IssueToken signs a Claims token for username.
func IssueToken(username string, cfg JWTConfig) (string, error) {
	cfg = cfg.withDefaults()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.Expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SecretKey))
}

// ParseToken validates tokenString's signature and expiry and returns its
// claims.
func ParseToken(tokenString string, cfg JWTConfig) (*Claims, error) {
	cfg = cfg.withDefaults()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// HashPassword bcrypt-hashes a plaintext operator password for storage in
// Config.AdminPasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
