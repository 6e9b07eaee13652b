package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Middleware is the net/http middleware shape every stage implements.
type Middleware func(http.Handler) http.Handler

// Gin adapts a net/http middleware to Gin. When the middleware answers the
// request itself (never calls next) the rest of the Gin chain is aborted.
func Gin(mw Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false

		// Bridge handler to allow net/http middleware execution
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		if !called {
			c.Abort()
		}
	}
}
