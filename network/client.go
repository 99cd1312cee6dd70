// Package network provides the shared HTTP client and the source reader used for feed documents.
package network

import (
	"net/http"
	"time"
)

// Client is the HTTP client shared by every feed request.
var Client = &http.Client{
	Timeout:   time.Minute,
	Transport: newTransport(),
}

// SetTimeout changes the per-request timeout of the shared client. Zero disables it.
func SetTimeout(d time.Duration) {
	Client.Timeout = d
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 32
	t.MaxIdleConnsPerHost = 8
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}
