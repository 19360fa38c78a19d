package router

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuongbtq/jobboard/internal/api/handler"
	"github.com/cuongbtq/jobboard/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request correlation id
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	authSourceKey    = "auth_source"
	authSourceBearer = "bearer"
	authSourceCookie = "cookie"
)

// RequestIDMiddleware propagates or generates a request id
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests with slog
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP Request",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.String("ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Duration("latency", latency),
			slog.Int("body_size", c.Writer.Size()),
		)

		for _, e := range c.Errors {
			logger.Error("Request error",
				slog.String("request_id", c.GetString(requestIDKey)),
				slog.String("error", e.Error()),
				slog.Uint64("type", uint64(e.Type)),
			)
		}
	}
}

// CORSMiddleware handles Cross-Origin Resource Sharing for the listed origins.
// Other origins get no CORS headers, so browsers keep them same-origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := originSet(allowedOrigins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SameOriginMiddleware rejects state-changing requests authenticated by the
// session cookie unless Origin (or Referer) is this host or an allowed origin.
// Bearer-authenticated requests are not subject to it.
func SameOriginMiddleware(allowedOrigins []string, logger *slog.Logger) gin.HandlerFunc {
	allowed := originSet(allowedOrigins)

	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) || c.GetString(authSourceKey) != authSourceCookie {
			c.Next()
			return
		}

		origin := requestOrigin(c.Request)
		if origin != "" {
			if _, ok := allowed[origin]; ok {
				c.Next()
				return
			}
			if u, err := url.Parse(origin); err == nil && u.Host == c.Request.Host {
				c.Next()
				return
			}
		}

		logger.Warn("Rejected cross-site request",
			slog.String("request_id", c.GetString(requestIDKey)),
			slog.String("origin", origin),
			slog.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Cross-site request rejected",
		})
	}
}

func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" && origin != "null" {
		return origin
	}
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host == "" {
		return ""
	}
	return ref.Scheme + "://" + ref.Host
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func originSet(origins []string) map[string]struct{} {
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return set
}

// AuthMiddleware resolves the viewer from a bearer token or session cookie.
// Requests without a usable token continue as anonymous.
func AuthMiddleware(verifier auth.Verifier, cookieName string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := authSourceBearer
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			source = authSourceCookie
			token, _ = c.Cookie(cookieName)
		}
		if token == "" || verifier == nil {
			c.Next()
			return
		}

		user, err := verifier.Verify(token)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, auth.ErrTokenExpired) {
				level = slog.LevelDebug
			}
			logger.Log(c.Request.Context(), level, "Ignoring unusable token",
				slog.String("request_id", c.GetString(requestIDKey)),
				slog.String("error", err.Error()),
			)
			c.Next()
			return
		}

		c.Set(handler.ContextUserKey, user)
		c.Set(authSourceKey, source)
		c.Next()
	}
}

// RequireAuth rejects anonymous viewers
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !handler.CurrentUser(c).IsAuthenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
