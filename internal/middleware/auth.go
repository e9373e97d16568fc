package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gst-billing-service/internal/services"
)

// AccessTokenCookie is the cookie the browser session is kept in
const AccessTokenCookie = "access_token"

const principalKey = "principal"

// Authenticator resolves a bearer token, session cookie or API token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Principal, error)
}

// Auth rejects requests without a valid credential and stores the caller in
// the context under user_id, shop_id and principal.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			_ = c.Error(NewUnauthorizedError("Authentication required"))
			c.Abort()
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				_ = c.Error(NewUnauthorizedError("Invalid or expired token"))
			} else {
				_ = c.Error(err)
			}
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Set("user_id", principal.UserID.String())
		c.Set("shop_id", principal.ShopID.String())
		c.Next()
	}
}

// extractToken prefers the Authorization header over the session cookie
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// GetPrincipal returns the authenticated caller, or nil on public routes
func GetPrincipal(c *gin.Context) *services.Principal {
	value, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	principal, _ := value.(*services.Principal)
	return principal
}

// GetShopID returns the shop of the authenticated caller
func GetShopID(c *gin.Context) uuid.UUID {
	if p := GetPrincipal(c); p != nil {
		return p.ShopID
	}
	return uuid.Nil
}

// GetActor describes the caller for audited operations
func GetActor(c *gin.Context) services.Actor {
	actor := services.Actor{IP: c.ClientIP()}
	if p := GetPrincipal(c); p != nil {
		actor.UserID = p.UserID
		actor.ShopID = p.ShopID
	}
	return actor
}
