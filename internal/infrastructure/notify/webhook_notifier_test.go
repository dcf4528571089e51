package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apprefund "github.com/travelcrm/backend/internal/application/refund"
	"github.com/travelcrm/backend/internal/domain/refund"
)

func TestWebhookNotifier(t *testing.T) {
	t.Run("posts the status change", func(t *testing.T) {
		var got statusChangePayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		}))
		defer server.Close()

		notifier, err := NewWebhookNotifier(Config{URL: server.URL}, nil)
		require.NoError(t, err)

		change := apprefund.StatusNotification{
			CardID: uuid.New(),
			DealID: uuid.New(),
			From:   refund.StatusNew,
			To:     refund.StatusWork,
		}

		assert.NoError(t, notifier.NotifyStatusChanged(context.Background(), change))
		assert.Equal(t, change.CardID.String(), got.CardID)
		assert.Equal(t, string(refund.StatusWork), got.To)
	})

	t.Run("endpoint failure is reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		notifier, err := NewWebhookNotifier(Config{URL: server.URL}, nil)
		require.NoError(t, err)

		err = notifier.NotifyStatusChanged(context.Background(), apprefund.StatusNotification{})
		assert.Error(t, err)
	})

	t.Run("empty URL is rejected", func(t *testing.T) {
		_, err := NewWebhookNotifier(Config{}, nil)
		assert.Error(t, err)
	})
}
