package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sosstock/internal/apierror"
	"sosstock/internal/auth"
	"sosstock/internal/domain"
	"sosstock/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	SessionKey = "session"

	// retryAfterSeconds is sent with 503 while a session cannot be resolved.
	retryAfterSeconds = "2"
)

// ProfileLoader reads the profile behind a token.
type ProfileLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}

// RevocationChecker reports whether a token id was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth resolves the request session and rejects anything that is not
// authenticated. A valid token whose profile cannot be read because a store
// is failing yields 503 with Retry-After instead of 401, so clients retry
// rather than sign the user out.
func JWTAuth(issuer *auth.Issuer, profiles ProfileLoader, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := resolveSession(c, issuer, profiles, revoked)
		c.Set(SessionKey, sess)
		if !enforce(c, auth.Guard(sess)) {
			return
		}
		c.Next()
	}
}

func resolveSession(c *gin.Context, issuer *auth.Issuer, profiles ProfileLoader, revoked RevocationChecker) auth.Session {
	raw := bearerToken(c)
	if raw == "" {
		return auth.Anonymous()
	}
	claims, err := issuer.Parse(raw, auth.KindAccess)
	if err != nil {
		return auth.Anonymous()
	}
	ctx := c.Request.Context()

	if revoked != nil {
		isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("auth: deny-list unavailable")
			return auth.Loading(claims.ID)
		}
		if isRevoked {
			return auth.Anonymous()
		}
	}

	profile, err := profiles.FindByID(ctx, claims.ProfileID())
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return auth.Anonymous()
	case err != nil:
		log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("auth: profile store unavailable")
		return auth.Loading(claims.ID)
	}
	return auth.Authenticated(profile, claims.ID)
}

// bearerToken reads the Authorization header. EventSource clients cannot set
// headers, so the access_token query parameter is accepted as a fallback.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("access_token")
}

// RequireRole rejects sessions whose role is not in roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enforce(c, auth.Guard(GetSession(c), roles...)) {
			return
		}
		c.Next()
	}
}

func enforce(c *gin.Context, d auth.Decision) bool {
	switch d {
	case auth.Allow:
		return true
	case auth.Wait:
		c.Header("Retry-After", retryAfterSeconds)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Session is loading, retry shortly"))
	case auth.Forbidden:
		c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Insufficient permissions"))
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
	}
	return false
}

// GetSession returns the session set by JWTAuth, anonymous when absent.
func GetSession(c *gin.Context) auth.Session {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(auth.Session); ok {
			return s
		}
	}
	return auth.Anonymous()
}

// CurrentProfile is the authenticated profile, nil otherwise.
func CurrentProfile(c *gin.Context) *model.Profile {
	return GetSession(c).Profile
}
