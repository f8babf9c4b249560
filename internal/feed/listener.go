package feed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mnw01/scan-order/internal/ws"
)

const (
	channelName       = "row_changes"
	reconnectBaseWait = time.Second
	reconnectMaxWait  = 30 * time.Second
)

// Listener holds one dedicated connection in LISTEN mode and republishes
// notifications to the hub. It reconnects with backoff until the context is
// cancelled; already-connected websocket clients keep their state and simply
// miss notifications during an outage (they re-fetch on the next one).
type Listener struct {
	databaseURL string
	hub         *ws.Hub
}

func NewListener(databaseURL string, hub *ws.Hub) *Listener {
	return &Listener{databaseURL: databaseURL, hub: hub}
}

// Run blocks until ctx is cancelled. Call as a goroutine: go listener.Run(ctx)
func (l *Listener) Run(ctx context.Context) {
	wait := reconnectBaseWait
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Printf("ERROR: feed listener: %v (reconnecting in %s)", err, wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		wait *= 2
		if wait > reconnectMaxWait {
			wait = reconnectMaxWait
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch([]byte(notification.Payload))
	}
}

func (l *Listener) dispatch(payload []byte) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		log.Printf("ERROR: feed: bad notification payload: %v", err)
		return
	}

	var room string
	switch change.Table {
	case TableCartItems:
		room = ws.CartRoom(change.RestaurantID, change.TableNumber)
	case TableOrders:
		room = ws.OrdersRoom(change.RestaurantID)
	default:
		return
	}

	l.hub.Broadcast(room, ws.Event{Type: "change", Payload: payload})
}
