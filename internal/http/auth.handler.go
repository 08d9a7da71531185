package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/http/middleware"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	oauthStateCookie = "oauth_state"
	googleUserInfo   = "https://www.googleapis.com/oauth2/v3/userinfo"
)

func SignIn(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type signInRequest struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}

		var request signInRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		account, err := ctx.Auth.SignIn(c.Request.Context(), request.Email, request.Password)
		if err != nil {
			if errors.Is(err, services.ErrUnauthorized) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
				return
			}
			respondError(ctx, c, err, "Failed to sign in")
			return
		}

		token, ok := issueSession(ctx, c, account)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Signed in", "token": token})
	}
}

func Login(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := randomState()
		if err != nil {
			ctx.Logger.Error("Failed to generate OAuth state", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start sign-in"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(oauthStateCookie, state, int((10 * time.Minute).Seconds()), "/", "", ctx.IsProduction(), true)

		url := ctx.OAuth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

func Callback(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		expected, err := c.Cookie(oauthStateCookie)
		if err != nil || expected == "" || expected != c.Query("state") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
			return
		}
		c.SetCookie(oauthStateCookie, "", -1, "/", "", ctx.IsProduction(), true)

		code := c.Query("code")
		token, err := ctx.OAuth2Config.Exchange(c.Request.Context(), code)
		if err != nil {
			ctx.Logger.Error("Failed to exchange token", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to exchange token"})
			return
		}

		client := ctx.OAuth2Config.Client(c.Request.Context(), token)
		resp, err := client.Get(googleUserInfo)
		if err != nil {
			ctx.Logger.Error("Failed to get user info", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user info"})
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			ctx.Logger.Error("Failed to read user info response body", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read user info response body"})
			return
		}

		profile := struct {
			Sub           string `json:"sub"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Name          string `json:"name"`
		}{}

		if err := json.Unmarshal(body, &profile); err != nil {
			ctx.Logger.Error("Failed to unmarshal user info", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unmarshal user info"})
			return
		}
		if profile.Email == "" || !profile.EmailVerified {
			c.JSON(http.StatusForbidden, gin.H{"error": "Email address is not verified"})
			return
		}

		account, err := ctx.Auth.AccountByEmail(c.Request.Context(), profile.Email)
		if errors.Is(err, services.ErrNotFound) {
			ctx.Logger.Info("OAuth sign-in for unprovisioned email", zap.String("email", profile.Email))
			c.JSON(http.StatusForbidden, gin.H{"error": "No account is provisioned for this email"})
			return
		}
		if err != nil {
			respondError(ctx, c, err, "Failed to find account")
			return
		}

		if _, ok := issueSession(ctx, c, account); !ok {
			return
		}

		redirect := ctx.SiteURL
		if redirect == "" {
			redirect = "/"
		}
		c.Redirect(http.StatusTemporaryRedirect, redirect)
	}
}

func SignOut(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := middleware.SessionToken(c); tokenString != "" {
			if claims, err := utils.ValidateJWT(ctx.JWTSecret, tokenString); err == nil {
				if err := ctx.Sessions.Revoke(c.Request.Context(), claims.ID, claims.Remaining(time.Now())); err != nil {
					ctx.Logger.Error("Failed to revoke session", zap.Error(err))
				}
			}
		}

		middleware.ClearSessionCookie(c, ctx)
		c.JSON(http.StatusOK, gin.H{"message": "Successfully signed out"})
	}
}

func ForgotPassword(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type forgotPasswordRequest struct {
			Email string `json:"email" binding:"required"`
		}

		var request forgotPasswordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
			return
		}

		if err := ctx.Auth.ForgotPassword(c.Request.Context(), request.Email); err != nil {
			ctx.Logger.Error("Failed to process password reset request", zap.Error(err))
		}

		c.JSON(http.StatusOK, gin.H{"message": "If an account exists for this email, a reset link has been sent"})
	}
}

func ResetPassword(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type resetPasswordRequest struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}

		var request resetPasswordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		if err := ctx.Auth.ResetPassword(c.Request.Context(), request.Token, request.Password); err != nil {
			respondError(ctx, c, err, "Failed to reset password")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	}
}

func GetUserInfo(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		response := gin.H{
			"user": user,
			"role": user.Role(),
		}
		if account, err := ctx.Users.GetAccount(c.Request.Context(), user.ID); err == nil {
			response["email"] = account.Email
		}

		c.JSON(http.StatusOK, response)
	}
}

func DebugUserInfo(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		claims, err := utils.GetClaims(c)
		if err != nil {
			ctx.Logger.Error("Failed to get claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"userId":        user.ID,
			"email":         claims.Email,
			"sessionId":     claims.ID,
			"expiresAt":     claims.ExpiresAt,
			"role":          user.Role(),
			"isAdmin":       utils.IsAdmin(user),
			"isHROrAdmin":   utils.IsHROrAdmin(user),
			"metadata":      user,
			"hasMetadata":   !user.CreatedAt.IsZero(),
			"articleAuthor": ctx.Articles.IsAuthor(user.ID),
		})
	}
}

func issueSession(ctx *appcontext.Context, c *gin.Context, account *entity.Account) (string, bool) {
	token, _, err := utils.GenerateJWT(ctx.JWTSecret, account.ID, account.Email, ctx.SessionTTL)
	if err != nil {
		ctx.Logger.Error("Failed to generate JWT token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate JWT token"})
		return "", false
	}
	middleware.SetSessionCookie(c, ctx, token)
	ctx.Logger.Info("Session issued", zap.String("user_id", account.ID.String()))
	return token, true
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
