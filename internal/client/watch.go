package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	synchub "booktracker/internal/sync"
)

// Watch subscribes to the server's websocket feed and calls onEvent for
// every book event until ctx is cancelled or the connection drops.
// Non-event frames such as the welcome message are skipped.
func Watch(ctx context.Context, wsURL string, onEvent func(synchub.BookEvent)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}

		var ev synchub.BookEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		if !strings.HasPrefix(ev.Type, "book.") {
			continue
		}
		onEvent(ev)
	}
}
