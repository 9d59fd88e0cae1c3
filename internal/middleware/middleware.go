package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"expohall/internal/cache"
	"expohall/internal/logger"
	"expohall/internal/repository"
	"expohall/internal/service"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// RequestID assigns every request a correlation ID, exposed in the
// response header and attached to the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.NewRequestID()
		}

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(
			logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// Logger emits one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.WithContext(c.Request.Context()).Info("Request handled",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

// Recovery turns panics into 500 responses with a logged stack cause.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithContext(c.Request.Context()).Error("Panic recovered",
					"panic", r,
					"path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// CORS allows browser clients from any origin; credentials travel in
// the Authorization header, not cookies.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// BasicAuth resolves the caller's credentials to a Principal. Verified
// pairs are cached in Valkey so the database sees each credential once;
// the cache client may be nil, in which case every request hits the
// database.
func BasicAuth(users *repository.UserRepository, valkey *cache.ValkeyClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="expohall"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		passwordHash := hashPassword(password)

		if valkey != nil {
			if userID, role, err := valkey.GetUserByAuth(c.Request.Context(), email, passwordHash); err == nil {
				setPrincipal(c, service.Principal{UserID: userID, Role: role})
				c.Next()
				return
			}
		}

		user, err := users.GetByEmail(c.Request.Context(), email)
		if err != nil {
			logger.WithContext(c.Request.Context()).Error("Auth lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if user == nil || !user.IsActive ||
			subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(passwordHash)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		if valkey != nil {
			if err := valkey.SetUserAuth(c.Request.Context(), email, passwordHash, user.ID, user.Role); err != nil {
				logger.WithContext(c.Request.Context()).Warn("Failed to cache credentials", "error", err)
			}
		}

		setPrincipal(c, service.Principal{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func setPrincipal(c *gin.Context, p service.Principal) {
	c.Set(principalKey, p)
	c.Request = c.Request.WithContext(
		logger.ContextWithUserID(c.Request.Context(), p.UserID))
}

// Principal returns the authenticated caller set by BasicAuth.
func Principal(c *gin.Context) (service.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return service.Principal{}, false
	}
	p, ok := value.(service.Principal)
	return p, ok
}
