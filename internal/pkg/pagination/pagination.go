package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 9
	MaxLimit     = 100
)

// Query holds parsed offset pagination parameters.
type Query struct {
	StartIndex int
	Limit      int
}

// FromContext reads startIndex and limit, falling back to defaults on
// malformed or out-of-range values.
func FromContext(c *gin.Context) Query {
	start := parseIntOr(c.Query("startIndex"), 0)
	limit := parseIntOr(c.Query("limit"), DefaultLimit)

	if start < 0 {
		start = 0
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Query{StartIndex: start, Limit: limit}
}

func parseIntOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
