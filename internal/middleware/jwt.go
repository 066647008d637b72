package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
	"github.com/noah-isme/academic-metrics-api/pkg/response"
)

// ContextUserKey is the gin context key storing verified identity claims.
const ContextUserKey = "currentUser"

// TokenVerifier checks bearer tokens minted by the external identity
// provider. This service never issues tokens itself.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier constructs a verifier for the shared provider secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning the identity claims.
func (v *TokenVerifier) Verify(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	subject, _ := mapClaims["sub"].(string)
	if subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing subject")
	}
	email, _ := mapClaims["email"].(string)
	return &models.JWTClaims{Subject: subject, Email: email}, nil
}

// JWT protects routes by requiring a valid provider token.
func JWT(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromHeader(c, verifier)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when present but does not block. Query
// endpoints use it so unauthenticated demo reads keep working.
func OptionalJWT(verifier *TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromHeader(c, verifier)
		if err == nil && claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}
}

func claimsFromHeader(c *gin.Context, verifier *TokenVerifier) (*models.JWTClaims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return verifier.Verify(parts[1])
}
