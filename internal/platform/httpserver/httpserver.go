// Package httpserver builds the process HTTP server with sane timeouts.
package httpserver

import (
	"net/http"
	"time"
)

// New creates an http.Server for the given address and handler. Timeouts are
// set so a stuck client cannot pin a connection forever.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
