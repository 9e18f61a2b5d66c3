package translation

import (
	"net/http"
	"time"
)

// NewFixedClient returns a client with a fixed clock and salt.
func NewFixedClient(cfg *Config, hc *http.Client, now time.Time, salt string) Client {
	c := NewClient(cfg, hc).(*youdao)
	c.now = func() time.Time { return now }
	c.salt = func() string { return salt }
	return c
}
