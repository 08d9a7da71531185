package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"go.uber.org/zap"
)

const SessionCookieName = "session"

// SessionMiddleware authenticates the request from the session cookie or a bearer
// token, loads the caller's metadata and re-issues the cookie once half of its
// lifetime has passed.
func SessionMiddleware(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := SessionToken(c)
		if tokenString == "" {
			unauthenticated(c)
			return
		}

		claims, err := utils.ValidateJWT(ctx.JWTSecret, tokenString)
		if err != nil {
			ctx.Logger.Debug("Rejected session token", zap.Error(err))
			unauthenticated(c)
			return
		}

		revoked, err := ctx.Sessions.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			ctx.Logger.Error("Failed to check session blacklist", zap.Error(err))
			unauthenticated(c)
			return
		}
		if revoked {
			unauthenticated(c)
			return
		}

		userID, err := utils.ParseUserID(claims)
		if err != nil {
			unauthenticated(c)
			return
		}

		user, err := ctx.Users.Get(c.Request.Context(), userID)
		if errors.Is(err, services.ErrNotFound) {
			user = &entity.UserMetadata{ID: userID}
		} else if err != nil {
			ctx.Logger.Error("Failed to load user metadata", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
			return
		}

		if claims.Remaining(time.Now()) < ctx.SessionTTL/2 {
			refreshed, newClaims, err := utils.GenerateJWT(ctx.JWTSecret, userID, claims.Email, ctx.SessionTTL)
			if err != nil {
				ctx.Logger.Error("Failed to refresh session", zap.Error(err))
			} else {
				SetSessionCookie(c, ctx, refreshed)
				claims = newClaims
			}
		}

		c.Set(utils.ClaimsKey, claims)
		c.Set(utils.CurrentUserKey, user)
		c.Next()
	}
}

func SetSessionCookie(c *gin.Context, ctx *appcontext.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ctx.SessionTTL.Seconds()), "/", "", ctx.IsProduction(), true)
}

func ClearSessionCookie(c *gin.Context, ctx *appcontext.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", ctx.IsProduction(), true)
}

// SessionToken returns the bearer token or session cookie sent with the request.
func SessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

// unauthenticated answers API calls with 401 and sends page requests to the sign-in page.
func unauthenticated(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Redirect(http.StatusFound, "/sign-in")
	c.Abort()
}
