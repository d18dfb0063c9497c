package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricwein/shurl/internal/middleware"
)

func TestMetrics(t *testing.T) {
	t.Run("passes the response through", func(t *testing.T) {
		handler := middleware.Metrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/abc", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "short", rec.Body.String())
	})

	t.Run("keeps the writer flushable", func(t *testing.T) {
		handler := middleware.Metrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			flusher, ok := w.(http.Flusher)
			require.True(t, ok, "wrapped writer must still support flushing")

			_, _ = w.Write([]byte("chunk"))
			flusher.Flush()
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/abc", nil))

		assert.True(t, rec.Flushed)
	})
}
