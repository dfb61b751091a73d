package aria2

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"nhooyr.io/websocket"
)

// Notification is an async event pushed by aria2 over its websocket
// endpoint, e.g. aria2.onDownloadStart or aria2.onDownloadComplete.
type Notification struct {
	Method string              `json:"method"`
	Params []NotificationEvent `json:"params"`
}

// NotificationEvent identifies the download a notification refers to.
type NotificationEvent struct {
	GID string `json:"gid"`
}

// Notifications connects to the aria2 websocket endpoint and streams async
// notifications. The returned channel is closed when the connection
// terminates or the context is cancelled.
func (c *Client) Notifications(ctx context.Context) (<-chan Notification, error) {
	wsURL := *c.baseURL
	switch wsURL.Scheme {
	case "http":
		wsURL.Scheme = "ws"
	case "https":
		wsURL.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported scheme: %s", wsURL.Scheme)
	}
	conn, _, err := websocket.Dial(ctx, wsURL.String(), nil)
	if err != nil {
		return nil, err
	}
	ch := make(chan Notification, 8)
	go func() {
		defer close(ch)
		defer func() { _ = conn.Close(websocket.StatusNormalClosure, "done") }()
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			// aria2 may send newline-delimited JSON; trim before decoding.
			var n Notification
			if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &n); err != nil {
				continue
			}
			ch <- n
		}
	}()
	return ch, nil
}
