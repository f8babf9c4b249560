package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mnw01/scan-order/client"
	"github.com/mnw01/scan-order/internal/feed"
)

var testUpgrader = websocket.Upgrader{}

func wsEvent(t *testing.T, change feed.Change) []byte {
	t.Helper()
	payload, err := json.Marshal(change)
	if err != nil {
		t.Fatalf("marshal change: %v", err)
	}
	data, err := json.Marshal(map[string]json.RawMessage{
		"type":    json.RawMessage(`"change"`),
		"payload": payload,
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return data
}

func waitFor(t *testing.T, ch <-chan feed.Change) feed.Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return feed.Change{}
	}
}

func TestFeedDeliversChanges(t *testing.T) {
	scope := client.Scope{RestaurantID: uuid.New(), TableNumber: "5"}
	want := feed.Change{
		Table:        feed.TableCartItems,
		Op:           feed.OpInsert,
		ID:           uuid.New(),
		RestaurantID: scope.RestaurantID,
		TableNumber:  scope.TableNumber,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, wsEvent(t, want))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	f := client.NewCartFeed(srv.URL, scope)
	defer f.Close()

	got := make(chan feed.Change, 1)
	dispose := f.Subscribe(func(c feed.Change) { got <- c })
	defer dispose()

	if c := waitFor(t, got); c != want {
		t.Errorf("change = %+v, want %+v", c, want)
	}
}

func TestFeedReconnects(t *testing.T) {
	scope := client.Scope{RestaurantID: uuid.New(), TableNumber: "5"}
	change := feed.Change{
		Table:        feed.TableCartItems,
		Op:           feed.OpUpdate,
		ID:           uuid.New(),
		RestaurantID: scope.RestaurantID,
		TableNumber:  scope.TableNumber,
	}

	conns := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conns++
		if conns == 1 {
			// Drop the first connection straight away.
			return
		}
		conn.WriteMessage(websocket.TextMessage, wsEvent(t, change))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	f := client.NewCartFeed(srv.URL, scope)
	defer f.Close()

	reconnects := make(chan struct{}, 4)
	f.OnReconnect(func() { reconnects <- struct{}{} })

	got := make(chan feed.Change, 1)
	f.Subscribe(func(c feed.Change) { got <- c })

	// The change only arrives on the second connection.
	if c := waitFor(t, got); c != change {
		t.Errorf("change = %+v, want %+v", c, change)
	}
	if len(reconnects) < 2 {
		t.Errorf("reconnects = %d, want at least 2", len(reconnects))
	}
}

func TestFeedDisposerStopsDelivery(t *testing.T) {
	scope := client.Scope{RestaurantID: uuid.New(), TableNumber: "5"}

	send := make(chan feed.Change, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for c := range send {
			if err := conn.WriteMessage(websocket.TextMessage, wsEvent(t, c)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()
	defer close(send)

	f := client.NewCartFeed(srv.URL, scope)
	defer f.Close()

	got := make(chan feed.Change, 4)
	dispose := f.Subscribe(func(c feed.Change) { got <- c })

	first := feed.Change{Table: feed.TableCartItems, Op: feed.OpInsert, ID: uuid.New(), RestaurantID: scope.RestaurantID, TableNumber: scope.TableNumber}
	send <- first
	if c := waitFor(t, got); c.ID != first.ID {
		t.Fatalf("first change not delivered")
	}

	dispose()
	send <- feed.Change{Table: feed.TableCartItems, Op: feed.OpDelete, ID: uuid.New(), RestaurantID: scope.RestaurantID, TableNumber: scope.TableNumber}

	select {
	case c := <-got:
		t.Errorf("disposed subscriber still received %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}
