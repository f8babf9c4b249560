package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mnw01/scan-order/internal/feed"
)

const (
	feedBackoffMin = time.Second
	feedBackoffMax = 30 * time.Second
)

// Feed consumes one change-feed room over a websocket. It reconnects with
// exponential backoff until closed; subscribers receive every notification
// read from the socket. Notifications carry no row data, so missing some
// during a reconnect window is fine as long as consumers re-fetch on
// reconnect, which the stores do.
type Feed struct {
	url       string
	logURL    string
	changes   emitter[feed.Change]
	reconnect emitter[struct{}]
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCartFeed opens the cart room for one table scope.
func NewCartFeed(baseURL string, scope Scope) *Feed {
	u := fmt.Sprintf("%s/ws/restaurants/%s/tables/%s/cart",
		wsBase(baseURL), scope.RestaurantID, url.PathEscape(scope.TableNumber))
	return startFeed(u)
}

// NewOrdersFeed opens the kitchen orders room. The room is staff-only, so the
// token rides along as a query parameter.
func NewOrdersFeed(baseURL string, restaurantID uuid.UUID, token string) *Feed {
	u := fmt.Sprintf("%s/ws/restaurants/%s/orders?token=%s",
		wsBase(baseURL), restaurantID, url.QueryEscape(token))
	return startFeed(u)
}

func wsBase(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	}
	return baseURL
}

func startFeed(u string) *Feed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Feed{
		url:    u,
		logURL: redactURL(u),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go f.run(ctx)
	return f
}

// redactURL strips the query string so a token riding in it never reaches
// the logs.
func redactURL(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// Subscribe registers fn for every change notification. The returned disposer
// removes it.
func (f *Feed) Subscribe(fn func(feed.Change)) func() {
	return f.changes.subscribe(fn)
}

// OnReconnect registers fn to run after each successful (re)connect,
// including the first. Stores use it to re-fetch state that may have changed
// while the socket was down.
func (f *Feed) OnReconnect(fn func()) func() {
	return f.reconnect.subscribe(func(struct{}) { fn() })
}

// Close stops the feed and waits for the read loop to exit.
func (f *Feed) Close() {
	f.cancel()
	<-f.done
}

func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	backoff := feedBackoffMin
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("ERROR: feed dial %s: %v", f.logURL, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > feedBackoffMax {
				backoff = feedBackoffMax
			}
			continue
		}

		backoff = feedBackoffMin
		f.reconnect.emit(struct{}{})
		f.read(ctx, conn)
	}
}

func (f *Feed) read(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	// Unblock ReadMessage when the feed is closed.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("feed read: %v, reconnecting", err)
			}
			return
		}

		var event struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &event); err != nil || event.Type != "change" {
			continue
		}
		var change feed.Change
		if err := json.Unmarshal(event.Payload, &change); err != nil {
			log.Printf("ERROR: feed decode: %v", err)
			continue
		}
		f.changes.emit(change)
	}
}
