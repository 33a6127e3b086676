// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const (
	keyClientID ctxKey = "client_id"
	keyPeerIP   ctxKey = "peer_ip"
)

// WithRequest annotates context with the request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return ctx
}

// WithClient annotates context with the authenticated client id
func WithClient(ctx context.Context, clientID string) context.Context {
	if clientID != "" {
		ctx = context.WithValue(ctx, keyClientID, clientID)
	}
	return ctx
}

// WithPeerIP annotates context with the trusted peer address
func WithPeerIP(ctx context.Context, ip string) context.Context {
	if ip != "" {
		ctx = context.WithValue(ctx, keyPeerIP, ip)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// ClientID returns the client id on the context if present
func ClientID(ctx context.Context) string {
	if v, ok := ctx.Value(keyClientID).(string); ok {
		return v
	}
	return ""
}

// PeerIP returns the trusted peer address on the context if present
func PeerIP(ctx context.Context) string {
	if v, ok := ctx.Value(keyPeerIP).(string); ok {
		return v
	}
	return ""
}
