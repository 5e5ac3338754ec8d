package ws

import (
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Client is one dashboard subscribed to the decision feed. An empty kind
// receives every decision.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	kind domain.DecisionKind
	send chan []byte
}

func (c *Client) wants(kind domain.DecisionKind) bool {
	return c.kind == "" || c.kind == kind
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
