package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderSessionStatus(t *testing.T) {
	t.Run("returns status from provider", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/checkout/sessions", r.URL.Path)
			assert.Equal(t, "res-42", r.URL.Query().Get("client_reference_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"complete"}`))
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL)
		st, err := p.SessionStatus(context.Background(), "res-42")
		require.NoError(t, err)
		assert.Equal(t, StatusComplete, st)
	})

	t.Run("incomplete session is not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"open"}`))
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL)
		st, err := p.SessionStatus(context.Background(), "res-1")
		require.NoError(t, err)
		assert.Equal(t, StatusOpen, st)
	})

	t.Run("non-200 is an infrastructure error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		p := NewHTTPProvider(srv.URL)
		_, err := p.SessionStatus(context.Background(), "res-1")
		assert.Error(t, err)
	})
}
