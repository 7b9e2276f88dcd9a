package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/alanahq/alana-server/internal/apperr"
	"github.com/alanahq/alana-server/internal/auth"
	"github.com/alanahq/alana-server/internal/auth/authctx"
	"github.com/alanahq/alana-server/internal/logger"
)

// Gin context keys.
const (
	ctxRequestID = "request_id"
)

// requestID injects a unique X-Request-Id header into every request and
// response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ctxRequestID, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// requestLogger logs every request with method, path, status, and
// duration. Health checks are skipped.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/api/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		fields := logger.Fields(
			"method", c.Request.Method,
			"path", path,
			"status", status,
			logger.FieldDuration, latency.Milliseconds(),
			logger.FieldRequestID, c.GetString(ctxRequestID),
			"client", c.ClientIP(),
		)

		switch {
		case status >= 500:
			log.Error("request completed", fields)
		case status >= 400:
			log.Warn("request completed", fields)
		default:
			log.Info("request completed", fields)
		}
	}
}

// cors sets CORS headers for allowed origins and answers OPTIONS
// preflight requests.
func cors(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && originAllowed(origin, allowedOrigins) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-Id")
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// authenticate resolves the Bearer token through the credential verifier
// and stores the user in the request context. Requests without a valid
// credential are rejected with the verifier's typed error.
func authenticate(verifier *auth.CredentialVerifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := bearerToken(c.GetHeader("Authorization"))

		user, err := verifier.Authenticate(c.Request.Context(), bearer)
		if err != nil {
			respondError(c, log, err)
			return
		}

		c.Request = c.Request.WithContext(authctx.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

// requireActive rejects deactivated accounts on state-mutating routes.
func requireActive(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := authctx.MustUser(c.Request.Context())
		if !user.IsActive {
			respondError(c, log, apperr.Forbidden("Your account has been deactivated."))
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. Returns
// empty for a missing header or a non-Bearer scheme.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
