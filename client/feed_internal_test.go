package client

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRedactURLStripsQuery(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ws://host/ws/restaurants/x/orders?token=secret", "ws://host/ws/restaurants/x/orders"},
		{"ws://host/ws/restaurants/x/tables/5/cart", "ws://host/ws/restaurants/x/tables/5/cart"},
	}
	for _, c := range cases {
		if got := redactURL(c.in); got != c.want {
			t.Errorf("redactURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// The token must reach the dial URL but never the one used in log lines.
func TestOrdersFeedLogURLOmitsToken(t *testing.T) {
	const token = "kitchen-bearer-token"
	f := NewOrdersFeed("http://localhost:0", uuid.New(), token)
	defer f.Close()

	if !strings.Contains(f.url, token) {
		t.Errorf("token missing from dial URL %q", f.url)
	}
	if strings.Contains(f.logURL, token) {
		t.Errorf("token leaked into log URL %q", f.logURL)
	}
}
