package web

import (
	"fmt"
	"time"

	"github.com/deemkeen/banbridge/bus"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const keepAliveInterval = 15 * time.Second

// HandleStream serves the live invalidation feed over SSE. Each client gets
// its own bus subscription for the lifetime of the connection; a comment
// line goes out whenever nothing happened for a while so proxies keep the
// connection open.
func HandleStream(c *gin.Context, live *bus.Bus) {
	sub := live.Subscribe()
	defer live.Unsubscribe(sub.Id())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	hello := fmt.Sprintf(`{"subscriberId":%d,"serverTime":%q}`, sub.Id(), time.Now().UTC().Format(time.RFC3339))
	if err := sse.Encode(c.Writer, sse.Event{Event: "hello", Data: hello}); err != nil {
		return
	}
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event := sub.Poll(keepAliveInterval)
		if event == nil {
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
			continue
		}

		if err := sse.Encode(c.Writer, sse.Event{Event: event.Event, Data: event.DataJson}); err != nil {
			return
		}
		c.Writer.Flush()
	}
}
