// Package reject lets a route choose the JSON body its guards answer with
// when they stop a request.
package reject

import "github.com/gin-gonic/gin"

const bodyKey = "reject.body"

// BodyFunc builds the response body for a rejection message.
type BodyFunc func(message string) any

// WithBody installs fn for every guard that runs after it on the route.
func WithBody(fn BodyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(bodyKey, fn)
		c.Next()
	}
}

// Abort stops the chain with status. The body comes from the route's BodyFunc
// or defaults to {"error": message}.
func Abort(c *gin.Context, status int, message string) {
	if value, ok := c.Get(bodyKey); ok {
		if fn, ok := value.(BodyFunc); ok {
			c.AbortWithStatusJSON(status, fn(message))
			return
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
