package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET,POST,PUT,OPTIONS"
	// Last-Event-ID is sent by EventSource clients reconnecting to the event stream.
	corsHeaders = "Authorization,Content-Type,Last-Event-ID"
)

type originPolicy struct {
	any     bool
	origins map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	policy := originPolicy{origins: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			policy.any = true
		default:
			policy.origins[origin] = struct{}{}
		}
	}
	return policy
}

// allow returns the value for Access-Control-Allow-Origin, or "" when the
// origin is not permitted.
func (p originPolicy) allow(origin string) string {
	if origin == "" {
		return ""
	}
	if p.any {
		return "*"
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// CORS lets browser clients on the configured origins call the API and open
// the event stream. Preflight requests end here with 204.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		if allowed := policy.allow(c.GetHeader("Origin")); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				c.Header("Vary", "Origin")
			}
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Methods", corsMethods)
		c.Header("Access-Control-Allow-Headers", corsHeaders)
		c.Header("Access-Control-Max-Age", "86400")
		c.AbortWithStatus(http.StatusNoContent)
	}
}
