package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publicationsHandler answers like the publications list after delay,
// or gives up without writing once the request context ends.
func publicationsHandler(delay time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		select {
		case <-time.After(delay):
			c.JSON(http.StatusOK, []gin.H{{"id": "p1", "title": "Acto del 25 de mayo"}})
		case <-c.Request.Context().Done():
		}
	}
}

func getPublications(r *gin.Engine) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/publications", nil))
	return w
}

func TestRequestTimeout_DisabledForNonPositiveDurations(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		r := gin.New()
		var hasDeadline bool
		r.GET("/api/publications", RequestTimeout(d), func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.JSON(http.StatusOK, []gin.H{})
		})

		w := getPublications(r)
		assert.Equal(t, http.StatusOK, w.Code, "duration %v", d)
		assert.False(t, hasDeadline, "duration %v should not set a deadline", d)
	}
}

func TestRequestTimeout_FastHandlerKeepsItsAnswer(t *testing.T) {
	r := gin.New()
	var deadline time.Time
	r.GET("/api/publications", RequestTimeout(5*time.Second), func(c *gin.Context) {
		deadline, _ = c.Request.Context().Deadline()
		publicationsHandler(0)(c)
	})

	w := getPublications(r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acto del 25 de mayo")
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}

func TestRequestTimeout_SlowHandlerGetsFailedResult(t *testing.T) {
	r := gin.New()
	r.GET("/api/publications", RequestTimeout(50*time.Millisecond), publicationsHandler(time.Second))

	w := getPublications(r)

	require.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.JSONEq(t, `{"success":false,"kind":"remote_unavailable","error":"request timeout"}`, w.Body.String())
}

func TestRequestTimeout_WrittenResultIsNotReplaced(t *testing.T) {
	r := gin.New()
	r.DELETE("/api/publications/:id", RequestTimeout(50*time.Millisecond), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "id": c.Param("id")})
		time.Sleep(100 * time.Millisecond)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/publications/p1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"id":"p1"}`, w.Body.String())
}
