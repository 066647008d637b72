package handler

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-metrics-api/internal/middleware"
	"github.com/noah-isme/academic-metrics-api/internal/models"
	appErrors "github.com/noah-isme/academic-metrics-api/pkg/errors"
)

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
	FindFirst(ctx context.Context) (*models.User, error)
}

// IdentityResolver maps a request to the user record it operates on.
// Authenticated requests resolve through the token subject. Read-only
// endpoints may fall back to an explicit user_id query parameter or, as
// a demo convenience, the first registered user. Mutations never fall
// back.
type IdentityResolver struct {
	users userFinder
}

// NewIdentityResolver constructs a resolver backed by the user store.
func NewIdentityResolver(users userFinder) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Require resolves the caller from verified claims only.
func (r *IdentityResolver) Require(c *gin.Context) (*models.User, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := r.users.FindBySubject(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown account")
		}
		return nil, err
	}
	return user, nil
}

// Resolve resolves the caller, allowing the demo fallbacks for
// unauthenticated reads.
func (r *IdentityResolver) Resolve(c *gin.Context) (*models.User, error) {
	if claims := claimsFromContext(c); claims != nil {
		return r.users.FindBySubject(c.Request.Context(), claims.Subject)
	}
	if id := c.Query("user_id"); id != "" {
		user, err := r.users.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
			}
			return nil, err
		}
		return user, nil
	}
	user, err := r.users.FindFirst(c.Request.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no users registered")
		}
		return nil, err
	}
	return user, nil
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
