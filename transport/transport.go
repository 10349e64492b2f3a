// Package transport issues streaming completion requests and hands the
// raw response body back to the decoding layer untouched.
package transport

import (
	"context"
	"io"
)

// Turn is one message in an upstream request.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one streaming completion.
type Request struct {
	Model string
	Turns []Turn
	User  string // optional upstream end-user identifier
}

// Client opens a streaming completion and returns the raw byte stream.
// The caller owns the closer; closing it aborts the stream, which is how
// cancellation and stall watchdogs work.
type Client interface {
	Open(ctx context.Context, req *Request) (io.ReadCloser, error)
}
