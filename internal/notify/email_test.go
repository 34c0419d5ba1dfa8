package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailNotifier(t *testing.T) {
	t.Run("SendsExpectedPayload", func(t *testing.T) {
		var got emailRequest
		var auth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		n := NewEmailNotifier("key123", "noreply@example.com", "chef@example.com")
		n.endpoint = srv.URL

		err := n.Notify(context.Background(), "Neue Buchung", "Kunde: Max")
		assert.NoError(t, err)
		assert.Equal(t, "Bearer key123", auth)
		assert.Equal(t, "noreply@example.com", got.From)
		assert.Equal(t, []string{"chef@example.com"}, got.To)
		assert.Equal(t, "Neue Buchung", got.Subject)
	})

	t.Run("NonSuccessStatusIsError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		n := NewEmailNotifier("key", "a@example.com", "b@example.com")
		n.endpoint = srv.URL

		assert.Error(t, n.Notify(context.Background(), "s", "b"))
	})
}
