package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// optionalInt64Query parses an optional integer query parameter; absent
// returns (nil, nil).
func optionalInt64Query(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
