// Package httpserver builds the service's http.Server. Every route
// answers small JSON or plain-text bodies; the slowest request is a
// dial, which is itself bounded by the AMI timeout, so the write
// bound stays comfortably above it.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for addr with timeouts suited to this API.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
