package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := startHub(t)

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 1),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, hub.ConnectedClients())

	hub.unregister <- client
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
}

func TestHub_Publish(t *testing.T) {
	hub := startHub(t)

	client := &Client{
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.register <- client
	time.Sleep(50 * time.Millisecond)

	id := uuid.New()
	hub.Publish(domain.DecisionAudit{ID: id, Kind: domain.DecisionKindVerify, Outcome: "verified"})

	select {
	case msg := <-client.send:
		var event Event
		err := json.Unmarshal(msg, &event)
		assert.NoError(t, err)
		assert.Equal(t, EventDecisionRecorded, event.Type)
		assert.Equal(t, id, event.Data.ID)
		assert.Equal(t, "verified", event.Data.Outcome)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_KindFilter(t *testing.T) {
	hub := startHub(t)

	verifyOnly := &Client{
		hub:  hub,
		kind: domain.DecisionKindVerify,
		send: make(chan []byte, 10),
	}
	everything := &Client{
		hub:  hub,
		send: make(chan []byte, 10),
	}

	hub.register <- verifyOnly
	hub.register <- everything
	time.Sleep(50 * time.Millisecond)

	hub.Publish(domain.DecisionAudit{ID: uuid.New(), Kind: domain.DecisionKindBatch, Outcome: "completed"})

	select {
	case <-everything.send:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("unfiltered client should receive batch decision")
	}

	select {
	case <-verifyOnly.send:
		t.Fatal("verify-only client should not receive batch decision")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := startHub(t)

	slow := &Client{
		hub:  hub,
		send: make(chan []byte),
	}
	hub.register <- slow
	time.Sleep(50 * time.Millisecond)

	hub.Publish(domain.DecisionAudit{ID: uuid.New(), Kind: domain.DecisionKindVerify})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, hub.ConnectedClients())
	_, open := <-slow.send
	assert.False(t, open)
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	_, open := <-client.send
	assert.False(t, open)
}

func TestUpgradeMiddleware_RejectsPlainHTTP(t *testing.T) {
	app := fiber.New()
	app.Get("/stream", UpgradeMiddleware(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/stream", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
