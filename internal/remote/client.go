package remote

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"hoteval/internal/registry"
)

// Client submits compile-check requests to a remote Server.
type Client struct {
	conn *websocket.Conn
}

// Dial opens a connection to a remote compile-as-a-service endpoint, e.g.
// "ws://host:port/compile".
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: dial failed: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Compile submits source and desc for type-checking and returns the
// resolved type name, or an error carrying the server's diagnostic.
func (c *Client) Compile(source string, desc registry.TableDescription) (string, error) {
	req := Request{Source: source, Table: desc}
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("remote: failed to encode request: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
		return "", fmt.Errorf("remote: failed to send request: %w", err)
	}

	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("remote: failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("remote: malformed response: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%s", resp.Error)
	}
	return resp.Type, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
