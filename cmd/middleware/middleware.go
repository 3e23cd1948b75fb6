package middleware

import (
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"stagedoor/internal/dto"
	"stagedoor/internal/repo"
)

// LoggingMiddleware writes one structured line per request.
func LoggingMiddleware() func(*ginext.Context) {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	}
}

// Identify resolves a bearer token to a profile and stores it in the request
// context. It never aborts: guests pass through without a profile, and
// endpoints that need one check for it themselves.
func Identify(repository repo.Repository) func(*ginext.Context) {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.Next()
			return
		}

		profile, err := repository.GetProfileByToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		c.Set("profile", profile)
		c.Next()
	}
}

// RequireAuth rejects requests that carry no resolved profile.
func RequireAuth() func(*ginext.Context) {
	return func(c *ginext.Context) {
		if _, exists := c.Get("profile"); !exists {
			dto.UnauthorizedError(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
