// Package reqid carries a per-request ID through a context.
package reqid

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strconv"
)

// Header is the HTTP header used to accept and echo request IDs.
const Header = "X-Request-Id"

type key struct{}

type clientKey struct{}

// NewContext returns a copy of parent with a new random, positive request ID
// stored. It also returns the generated ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := rand.Int64N(1<<63-1) + 1
	return context.WithValue(parent, key{}, id), id
}

// FromRequest stores a freshly generated ID like NewContext. A positive
// decimal ID sent by the client in Header is stored next to it and never
// replaces it; FromContext always yields the generated ID.
func FromRequest(parent context.Context, r *http.Request) (context.Context, int64) {
	ctx, id := NewContext(parent)
	if cid, err := strconv.ParseInt(r.Header.Get(Header), 10, 64); err == nil && cid > 0 {
		ctx = context.WithValue(ctx, clientKey{}, cid)
	}
	return ctx, id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}

// ClientID returns the ID the client sent, if any.
func ClientID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(clientKey{}).(int64)
	return id, ok
}

// ResponseID is the ID echoed back in the Header: the client's when it sent
// one, the generated one otherwise.
func ResponseID(ctx context.Context) int64 {
	if id, ok := ClientID(ctx); ok {
		return id
	}
	id, _ := FromContext(ctx)
	return id
}

// Format renders id as it is written to the Header.
func Format(id int64) string { return strconv.FormatInt(id, 10) }
