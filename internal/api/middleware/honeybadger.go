package middleware

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/bassista/go_school/internal/logger"
	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
)

// HoneybadgerMiddleware reports panics and 5xx responses to Honeybadger when
// HONEYBADGER_API_KEY is set. 503s are tagged "unavailable".
// On panic it notifies and re-panics so gin.Recovery writes the response.
func HoneybadgerMiddleware() gin.HandlerFunc {
	log := logger.WithComponent("honeybadger")
	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		log.Info("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})
	log.Info("Honeybadger error reporting is enabled.")

	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				honeybadger.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				log.Error("Recovered from panic, notified Honeybadger: ", rec)
				panic(rec)
			}
		}()

		c.Next()

		status := c.Writer.Status()
		if status < 500 {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		tags := honeybadger.Tags{"5XX", "http"}
		if status == 503 {
			tags = honeybadger.Tags{"unavailable", "http"}
		}
		honeybadger.Notify(fmt.Sprintf("HTTP %d: %s %s", status, c.Request.Method, route),
			c.Request, honeybadger.Context{"route": route, "errors": c.Errors.String()}, tags)
		log.Warnf("reported HTTP %d for %s %s", status, c.Request.Method, route)
	}
}
