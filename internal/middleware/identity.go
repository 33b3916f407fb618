package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

const ContextKeyClientIdentity = "client_identity"

// ClientIdentity resolves the identity used for view deduplication: the
// first X-Forwarded-For entry, else the host part of the peer address.
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyClientIdentity, ResolveClientIdentity(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr))
		c.Next()
	}
}

// ResolveClientIdentity is the pure form of ClientIdentity.
func ResolveClientIdentity(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}

// CurrentClientIdentity returns the identity set by ClientIdentity.
func CurrentClientIdentity(c *gin.Context) string {
	if id := c.GetString(ContextKeyClientIdentity); id != "" {
		return id
	}
	return ResolveClientIdentity(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr)
}
