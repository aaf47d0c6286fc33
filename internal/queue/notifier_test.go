package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() TicketPurchasedEvent {
	return TicketPurchasedEvent{
		SaleID:      42,
		UserID:      7,
		UserEmail:   "buyer@example.com",
		TicketID:    3,
		TicketName:  "Early Bird",
		EventID:     1,
		Quantity:    2,
		PriceCents:  1500,
		Currency:    "EUR",
		Remaining:   10,
		PurchasedAt: "2026-08-29T12:00:00Z",
	}
}

func TestNotifierPostsEvent(t *testing.T) {
	var got TicketPurchasedEvent
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Ticketing-Event")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	err := n.Notify(context.Background(), sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "ticket.purchased", header)
	assert.Equal(t, uint64(42), got.SaleID)
	assert.Equal(t, uint32(2), got.Quantity)
}

func TestNotifierReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL)
	err := n.Notify(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "502")
}

func TestNotifierWithoutURLIsNoop(t *testing.T) {
	n := NewNotifier("")
	assert.NoError(t, n.Notify(context.Background(), sampleEvent()))
}

func TestFormatConfirmation(t *testing.T) {
	line := formatConfirmation(sampleEvent())
	assert.Contains(t, line, "sale_id=42")
	assert.Contains(t, line, `email="buyer@example.com"`)
	assert.Contains(t, line, "total=3000 EUR")
	assert.Contains(t, line, "remaining=10")
}
